package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/supplyline/procurement_backend/models"
)

// The lower split bound is rejected before any storage access, so a zero or
// negative quantity must come back as ErrInvalidSplitQuantity for any batch id.
func TestSplitBatch_NonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -5} {
		_, err := SplitBatch(context.Background(), &SplitBatchInput{
			BatchId:       "some-batch",
			SplitQuantity: qty,
		})
		if !errors.Is(err, models.ErrInvalidSplitQuantity) {
			t.Errorf("SplitBatch(qty=%d): got %v, want ErrInvalidSplitQuantity", qty, err)
		}
	}
}
