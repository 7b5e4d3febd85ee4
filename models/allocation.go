package models

import (
	"context"
	"time"

	"github.com/supplyline/procurement_backend/config"
	"gorm.io/gorm"
)

// Allocation is a draft reservation of batch quantity against a pending
// outbound transfer. It never changes Batch.Quantity; only committing it does,
// through a transfer_out ledger entry. Rows are kept after commit/release for
// the audit trail; "open" status is what counts against availability.
type Allocation struct {
	ID                string           `gorm:"size:36;primary_key" json:"id"` // uuid
	BatchId           string           `gorm:"size:36;index;not null" json:"batch_id"`
	TransferDraftId   string           `gorm:"size:100;index;not null" json:"transfer_draft_id"`
	AllocatedQuantity int              `gorm:"not null" json:"allocated_quantity"`
	Status            AllocationStatus `gorm:"type:enum('open','committed','released');not null;default:open;index" json:"status"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAllocation struct {
	BatchId         string `json:"batch_id" validate:"required"`
	TransferDraftId string `json:"transfer_draft_id" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,gt=0"`
}

// OpenAllocationTotal sums the open reservations against a batch.
func OpenAllocationTotal(tx *gorm.DB, batchId string) (int, error) {
	var total int
	err := tx.Model(&Allocation{}).
		Where("batch_id = ? AND status = ?", batchId, AllocationStatusOpen).
		Select("COALESCE(SUM(allocated_quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// AvailableQuantity derives the unreserved on-hand quantity. It is never
// stored, to avoid drift: quantity minus the open reservations, recomputed on
// every read.
func AvailableQuantity(tx *gorm.DB, batch *Batch) (int, error) {
	open, err := OpenAllocationTotal(tx, batch.ID)
	if err != nil {
		return 0, err
	}
	return batch.Quantity - open, nil
}

func GetBatchAllocations(ctx context.Context, batchId string, openOnly bool) ([]*Allocation, error) {
	db := config.GetDB()
	var results []*Allocation
	dbCtx := db.WithContext(ctx).Where("batch_id = ?", batchId)
	if openOnly {
		dbCtx = dbCtx.Where("status = ?", AllocationStatusOpen)
	}
	err := dbCtx.Order("created_at ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
