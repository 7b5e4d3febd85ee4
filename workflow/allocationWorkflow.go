package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
	"gorm.io/gorm"
)

// AllocateStock reserves quantity on a batch for a pending outbound transfer.
// The reservation counts against availability immediately but does not touch
// Batch.Quantity or the ledger; only committing it does.
func AllocateStock(ctx context.Context, input *models.NewAllocation) (*models.Allocation, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	guard := acquireRedisGuard(ctx, "batch:"+input.BatchId)
	defer releaseRedisGuard(ctx, guard)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := AcquireBatchPostingLock(tx, input.BatchId); err != nil {
		return nil, err
	}
	defer ReleaseBatchPostingLock(tx, input.BatchId)

	batch, err := models.FetchBatchForChange(tx.WithContext(ctx), input.BatchId)
	if err != nil {
		return nil, err
	}
	if batch.Active == nil || !*batch.Active {
		return nil, fmt.Errorf("batch %s: %w", batch.ID, models.ErrInactiveBatch)
	}

	available, err := models.AvailableQuantity(tx.WithContext(ctx), batch)
	if err != nil {
		return nil, err
	}
	if input.Quantity > available {
		return nil, fmt.Errorf("batch %s: requested %d, available %d: %w", batch.ID, input.Quantity, available, models.ErrInsufficientAvailable)
	}

	allocation := models.Allocation{
		ID:                uuid.NewString(),
		BatchId:           batch.ID,
		TransferDraftId:   input.TransferDraftId,
		AllocatedQuantity: input.Quantity,
		Status:            models.AllocationStatusOpen,
	}
	if err := tx.WithContext(ctx).Create(&allocation).Error; err != nil {
		return nil, err
	}

	// Under the posting lock this cannot trip; it catches writes that bypassed
	// the lock.
	openTotal, err := models.OpenAllocationTotal(tx.WithContext(ctx), batch.ID)
	if err != nil {
		return nil, err
	}
	if openTotal > batch.Quantity {
		return nil, fmt.Errorf("batch %s: open allocations %d exceed quantity %d: %w", batch.ID, openTotal, batch.Quantity, models.ErrBatchOverAllocated)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

// ReleaseAllocation cancels an open reservation, returning its quantity to
// availability. No ledger entry is written; the batch never moved.
func ReleaseAllocation(ctx context.Context, allocationId string) (*models.Allocation, error) {
	return settleAllocation(ctx, allocationId, models.AllocationStatusReleased)
}

// CommitAllocation turns an open reservation into an actual outbound movement:
// a transfer_out ledger entry for the allocated quantity, written under the
// batch posting lock.
func CommitAllocation(ctx context.Context, allocationId string) (*models.Allocation, error) {
	return settleAllocation(ctx, allocationId, models.AllocationStatusCommitted)
}

func settleAllocation(ctx context.Context, allocationId string, target models.AllocationStatus) (*models.Allocation, error) {
	db := config.GetDB()

	var allocation models.Allocation
	err := db.WithContext(ctx).Where("id = ?", allocationId).First(&allocation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("allocation %s: %w", allocationId, models.ErrAllocationNotFound)
	}
	if err != nil {
		return nil, err
	}

	guard := acquireRedisGuard(ctx, "batch:"+allocation.BatchId)
	defer releaseRedisGuard(ctx, guard)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := AcquireBatchPostingLock(tx, allocation.BatchId); err != nil {
		return nil, err
	}
	defer ReleaseBatchPostingLock(tx, allocation.BatchId)

	// Re-read under the lock; the first read was only to learn the batch id.
	if err := tx.WithContext(ctx).Where("id = ?", allocationId).First(&allocation).Error; err != nil {
		return nil, err
	}
	if allocation.Status != models.AllocationStatusOpen {
		// Already committed or released; the open reservation no longer exists.
		return nil, fmt.Errorf("allocation %s is already %s: %w", allocation.ID, allocation.Status, models.ErrAllocationNotFound)
	}

	if target == models.AllocationStatusCommitted {
		batch, err := models.FetchBatchForChange(tx.WithContext(ctx), allocation.BatchId)
		if err != nil {
			return nil, err
		}
		reason := fmt.Sprintf("Allocation %s committed for transfer %s", allocation.ID, allocation.TransferDraftId)
		if _, err := models.RecordStockMovement(tx.WithContext(ctx), batch, batch.LocationId, models.MovementTypeTransferOut, -allocation.AllocatedQuantity, reason); err != nil {
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(&allocation).UpdateColumn("Status", target).Error; err != nil {
		return nil, err
	}
	allocation.Status = target

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}
