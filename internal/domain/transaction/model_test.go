package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatch_Validate(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		patch   Patch
		wantErr error
	}{
		{name: "empty patch", patch: Patch{}},
		{name: "completed", patch: Patch{Status: str(StatusCompleted)}},
		{name: "voided", patch: Patch{Status: str(StatusVoided)}},
		{name: "payment only", patch: Patch{PaymentMethod: str("cash")}},
		{name: "unknown status", patch: Patch{Status: str("refunded")}, wantErr: ErrInvalidStatus},
		{name: "empty status", patch: Patch{Status: str("")}, wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransaction_ComputeTotal(t *testing.T) {
	tr := Transaction{Items: []Item{
		{ProductID: "p1", Quantity: 3, UnitPrice: 0.1},
		{ProductID: "p2", Quantity: 1, UnitPrice: 19.99},
	}}

	assert.Equal(t, 20.29, tr.ComputeTotal())
}
