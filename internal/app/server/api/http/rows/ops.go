package rows

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) selectOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-select",
		Method:      http.MethodPost,
		Path:        "/api/v1/rows/{collection}/select",
		Summary:     "Выборка строк",
		Description: "Возвращает строки коллекции, подходящие под фильтры и строку поиска.",
		Tags:        []string{"rows"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) insertOp() huma.Operation {
	return huma.Operation{
		OperationID:   "rows-insert",
		Method:        http.MethodPost,
		Path:          "/api/v1/rows/{collection}",
		Summary:       "Создать строку",
		Description:   "Создает строку с идентификатором, выданным сервером.",
		Tags:          []string{"rows"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-update",
		Method:      http.MethodPatch,
		Path:        "/api/v1/rows/{collection}/{id}",
		Summary:     "Обновить строку",
		Tags:        []string{"rows"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) decrementOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-decrement",
		Method:      http.MethodPost,
		Path:        "/api/v1/rows/{collection}/{id}/decrement",
		Summary:     "Уменьшить числовое поле",
		Description: "Атомарно уменьшает поле строки, например остаток товара.",
		Tags:        []string{"rows"},
		Middlewares: h.middleware,
	}
}
