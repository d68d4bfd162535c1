package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"technoplus/internal/app/client"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить фоновую синхронизацию",
	Long: `Держит соединение с сервером и синхронизирует данные по расписанию
и при каждом восстановлении связи. Останавливается по Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if app.Probe(cmd.Context()) {
			fmt.Println("Сервер доступен, запускаем синхронизацию")
		} else {
			fmt.Println("Сервер недоступен, работаем локально")
		}

		return app.Run(cmd.Context())
	},
}
