package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/http/apierr"
	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

func TestNew(t *testing.T) {
	t.Run("Should map app errors by status", func(t *testing.T) {
		tests := []struct {
			err  error
			code string
			want int
		}{
			{apperr.ValidationErr, apperr.ValidationErrorCode, http.StatusBadRequest},
			{apperr.StoreErr.WrapParent(errors.New("boom")), apperr.StoreErrorCode, http.StatusInternalServerError},
			{fmt.Errorf("wrapped: %w", apperr.SourceErr), apperr.SourceErrorCode, http.StatusBadGateway},
			{apperr.UnavailableErr, apperr.UnavailableCode, http.StatusServiceUnavailable},
		}
		for _, tt := range tests {
			res := apierr.New(tt.err)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.want, res.StatusCode)
		}
	})

	t.Run("Should expose validation details", func(t *testing.T) {
		type payload struct {
			Name string `validate:"required"`
		}
		err := validator.MustNewDefaultValidator().Validate(payload{})

		res := apierr.New(apperr.ValidationErr.WrapParent(err))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		if assert.NotNil(t, res.Details) {
			assert.Equal(t, []apierr.FieldError{{Field: "Name", Message: "field is required"}}, *res.Details)
		}
	})

	t.Run("Should hide unknown errors", func(t *testing.T) {
		assert.Equal(t, apierr.InternalServerErr, apierr.New(errors.New("pq: secret detail")))
	})
}
