package health

type Input struct{}

type Output struct {
	Body Response
}

type Response struct {
	Status  string `json:"status" example:"OK" doc:"Состояние сервиса"`
	Storage string `json:"storage" example:"OK" doc:"Состояние хранилища строк"`
}
