package zerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/restock-watch/pkg/zerror"
)

func TestZError(t *testing.T) {
	base := zerror.NewBadGateway("SOURCE_UNAVAILABLE", "snapshot source unavailable")

	t.Run("Should format without parent", func(t *testing.T) {
		assert.Equal(t, "SOURCE_UNAVAILABLE: snapshot source unavailable", base.Error())
	})

	t.Run("Should format with parent", func(t *testing.T) {
		err := base.WrapParent(errors.New("status 502"))
		assert.Equal(t, "SOURCE_UNAVAILABLE: snapshot source unavailable: status 502", err.Error())
	})

	t.Run("Should match by code through wrapping", func(t *testing.T) {
		parent := errors.New("dial tcp: connection refused")
		err := fmt.Errorf("fetch snapshot: %w", base.WrapParent(parent))

		assert.ErrorIs(t, err, base)
		assert.ErrorIs(t, err, parent)

		zErr, ok := zerror.From(err)
		assert.True(t, ok)
		assert.Equal(t, zerror.StatusBadGateway, zErr.Status())
		assert.Equal(t, parent, zErr.Parent())
	})

	t.Run("Should not match a different code", func(t *testing.T) {
		other := zerror.NewInternalServerError("STORE_FAILED", "state store failed")
		assert.NotErrorIs(t, base.WrapParent(errors.New("x")), other)
	})

	t.Run("Should report plain errors", func(t *testing.T) {
		_, ok := zerror.From(errors.New("plain"))
		assert.False(t, ok)
	})

	t.Run("Should ignore nil parent", func(t *testing.T) {
		assert.Nil(t, base.WrapParent(nil).Parent())
	})
}
