package rows

import (
	"encoding/json"

	"technoplus/internal/domain/record"
)

type selectInput struct {
	Collection string `path:"collection" example:"products" doc:"Имя коллекции"`
	Body       record.Query
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Rows []record.Record `json:"rows" doc:"Найденные строки в порядке создания"`
}

type insertInput struct {
	Collection string `path:"collection" example:"products" doc:"Имя коллекции"`
	Body       insertRequest
}

type insertRequest struct {
	Key  string          `json:"key,omitempty" doc:"Ключ идемпотентности. Повтор с тем же ключом возвращает исходную строку"`
	Data json.RawMessage `json:"data" doc:"JSON-объект строки"`
}

type updateInput struct {
	Collection string `path:"collection" example:"products" doc:"Имя коллекции"`
	ID         string `path:"id" doc:"Идентификатор строки"`
	Body       updateRequest
}

type updateRequest struct {
	Data json.RawMessage `json:"data" doc:"Патч верхнего уровня"`
}

type decrementInput struct {
	Collection string `path:"collection" example:"products" doc:"Имя коллекции"`
	ID         string `path:"id" doc:"Идентификатор строки"`
	Body       decrementRequest
}

type decrementRequest struct {
	Field  string  `json:"field" example:"stock_quantity" doc:"Числовое поле"`
	Amount float64 `json:"amount" example:"1" doc:"На сколько уменьшить"`
	Key    string  `json:"key,omitempty" doc:"Ключ идемпотентности. Повтор с тем же ключом не применяется"`
}

type rowOutput struct {
	Body record.Record
}
