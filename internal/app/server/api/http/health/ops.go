package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Проверка состояния",
		Description: "Возвращает состояние сервиса и хранилища строк. Клиент использует этот запрос как проверку связи.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
