package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technoplus/internal/domain/transaction"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     transaction.Item
		hasPrice bool
		wantErr  bool
	}{
		{name: "без цены", raw: "p1:2", want: transaction.Item{ProductID: "p1", Quantity: 2}},
		{name: "с ценой", raw: "p1:1:350.5", want: transaction.Item{ProductID: "p1", Quantity: 1, UnitPrice: 350.5}, hasPrice: true},
		{name: "временный id", raw: "temp_abc:3", want: transaction.Item{ProductID: "temp_abc", Quantity: 3}},
		{name: "нет количества", raw: "p1", wantErr: true},
		{name: "пустой id", raw: ":2", wantErr: true},
		{name: "нулевое количество", raw: "p1:0", wantErr: true},
		{name: "отрицательная цена", raw: "p1:1:-5", wantErr: true},
		{name: "лишние части", raw: "p1:1:2:3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hasPrice, err := parseItem(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.hasPrice, hasPrice)
		})
	}
}
