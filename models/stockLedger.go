package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supplyline/procurement_backend/config"
	"gorm.io/gorm"
)

// StockLedgerEntry is an immutable fact about a quantity movement. The ledger
// is append-only and is the source of truth for "what happened"; Batch.Quantity
// is a cache that must equal the signed sum of the batch's entries at all times.
type StockLedgerEntry struct {
	ID           string       `gorm:"size:36;primary_key" json:"id"` // uuid
	BatchId      string       `gorm:"size:36;index;not null" json:"batch_id"`
	LocationId   string       `gorm:"size:100;index" json:"location_id"`
	MovementType MovementType `gorm:"type:enum('receipt','split_out','split_in','merge_out','merge_in','transfer_out','transfer_in','adjustment');not null" json:"movement_type"`
	Quantity     int          `gorm:"not null" json:"quantity"` // signed
	Reason       string       `gorm:"type:text" json:"reason"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// RecordStockMovement appends a ledger entry and updates the batch's quantity
// cache (and total cost) in the caller's transaction. It fails with
// ErrInvalidMovement when qty is zero, carries the wrong sign for the movement
// type, or would drive the batch balance negative. Nothing is written on
// failure.
func RecordStockMovement(tx *gorm.DB, batch *Batch, locationId string, movementType MovementType, qty int, reason string) (*StockLedgerEntry, error) {

	if !MovementQuantityValid(movementType, qty) {
		return nil, fmt.Errorf("batch %s: %s of %d: %w", batch.ID, movementType, qty, ErrInvalidMovement)
	}

	newQty := batch.Quantity + qty
	if newQty < 0 {
		return nil, fmt.Errorf("batch %s: %s of %d would leave balance %d: %w", batch.ID, movementType, qty, newQty, ErrInvalidMovement)
	}

	entry := StockLedgerEntry{
		ID:           uuid.NewString(),
		BatchId:      batch.ID,
		LocationId:   locationId,
		MovementType: movementType,
		Quantity:     qty,
		Reason:       reason,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	batch.Quantity = newQty
	batch.RecomputeTotalCost()
	if err := tx.Model(batch).Updates(map[string]interface{}{
		"Quantity":  batch.Quantity,
		"TotalCost": batch.TotalCost,
	}).Error; err != nil {
		return nil, err
	}

	if config.StrictLedgerBalanceCheck() {
		balance, err := BatchBalance(tx, batch.ID)
		if err != nil {
			return nil, err
		}
		if balance != batch.Quantity {
			return nil, fmt.Errorf("batch %s: ledger balance %d != quantity %d after %s", batch.ID, balance, batch.Quantity, movementType)
		}
	}

	return &entry, nil
}

// BatchBalance returns the signed sum of the batch's ledger entries.
func BatchBalance(tx *gorm.DB, batchId string) (int, error) {
	var balance int
	err := tx.Model(&StockLedgerEntry{}).
		Where("batch_id = ?", batchId).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func GetBatchLedger(ctx context.Context, batchId string) ([]*StockLedgerEntry, error) {
	db := config.GetDB()
	var entries []*StockLedgerEntry
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchId).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
