package main

import "technoplus/cmd/client/cmd"

func main() {
	cmd.Execute()
}
