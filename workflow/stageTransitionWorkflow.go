package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
)

type StageTransitionInput struct {
	BatchId string `json:"batch_id" validate:"required"`
	Stage   string `json:"stage" validate:"required"`
	Note    string `json:"note"`
}

// TransitionBatchStage moves a batch to another pipeline stage and appends a
// stage history event. Any known stage is a legal target, including earlier
// ones; real operations sometimes need to correct a wrong stage, and the
// history row is the audit of that correction. Inactive batches cannot move.
func TransitionBatchStage(ctx context.Context, input *StageTransitionInput) (*models.Batch, error) {
	db := config.GetDB()

	target, err := models.ParseBatchStage(input.Stage)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", input.Stage, err)
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

	if err := models.AppendStageEvent(tx.WithContext(ctx), batch, target, input.Note); err != nil {
		return nil, err
	}

	// First arrival at the warehouse stamps the actual arrival date.
	if target == models.BatchStageWarehouse && batch.ActualArrival == nil {
		now := time.Now()
		if err := tx.WithContext(ctx).Model(batch).UpdateColumn("ActualArrival", now).Error; err != nil {
			return nil, err
		}
		batch.ActualArrival = &now
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return batch, nil
}
