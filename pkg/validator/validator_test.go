package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

type item struct {
	ID   string `validate:"required"`
	Name string `validate:"required,notblank"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     item
		fields []string
	}{
		{name: "valid", in: item{ID: "a", Name: "Milk"}},
		{name: "missing id", in: item{Name: "Milk"}, fields: []string{"ID: field is required"}},
		{name: "blank name", in: item{ID: "a", Name: "   "}, fields: []string{"Name: must not be blank"}},
		{
			name:   "both missing",
			in:     item{},
			fields: []string{"ID: field is required", "Name: field is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, validator.IsValidationError(err))
			assert.Equal(t, tt.fields, validator.FieldErrors(err))
		})
	}

	assert.False(t, validator.IsValidationError(errors.New("boom")))
	assert.Nil(t, validator.FieldErrors(errors.New("boom")))
}
