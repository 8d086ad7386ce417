package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

var errMissingData = errors.New(`response has no "data" field, the format may have changed`)

type catalogResponse struct {
	Data *[]json.RawMessage `json:"data"`
}

type catalogItem struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Quantity  quantity  `json:"inventory_quantity"`
	Available flexiBool `json:"available"`
}

// flexiBool accepts a JSON bool, a number (non-zero is true) or null.
type flexiBool bool

func (b *flexiBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = false
		return nil
	case bytes.Equal(data, []byte("true")):
		*b = true
		return nil
	case bytes.Equal(data, []byte("false")):
		*b = false
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("available: unsupported value %s", data)
	}
	*b = n != 0
	return nil
}

// quantity is an opaque integer. Integral floats are accepted, null is zero.
type quantity int64

func (q *quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("inventory_quantity: unsupported value %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*q = quantity(i)
		return nil
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("inventory_quantity: not an integer %s", data)
	}
	*q = quantity(f)
	return nil
}

// decodeCatalog fails only when the envelope is unusable. Items that do not
// decode are logged as RecordErr with their position and skipped.
func decodeCatalog(ctx context.Context, r io.Reader, logger *slog.Logger) ([]model.ProductRecord, error) {
	var resp catalogResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if resp.Data == nil {
		return nil, errMissingData
	}

	records := make([]model.ProductRecord, 0, len(*resp.Data))
	for i, raw := range *resp.Data {
		var item catalogItem
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.WarnContext(ctx, "skipping catalog item",
				slog.Int("position", i),
				slog.Any("error", apperr.RecordErr.WrapParent(err)),
			)
			continue
		}

		records = append(records, model.ProductRecord{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  int(item.Quantity),
			Available: bool(item.Available),
		})
	}

	return records, nil
}
