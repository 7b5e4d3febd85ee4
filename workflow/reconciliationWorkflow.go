package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
	"gorm.io/gorm"
)

type ReconcileInput struct {
	BatchId          string `json:"batch_id" validate:"required"`
	ReportedQuantity int    `json:"reported_quantity" validate:"gte=0"`
	Source           string `json:"source"`
}

type ResolveReconciliationInput struct {
	ReportId string `json:"report_id" validate:"required"`
	Note     string `json:"note" validate:"required"`
}

// RecordReconciliation compares the batch's on-hand quantity against what the
// marketplace reported and files the result. It never moves stock: a
// discrepancy stays open until someone resolves it with an explicit
// adjustment.
func RecordReconciliation(ctx context.Context, input *ReconcileInput) (*models.ReconciliationReport, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	batch, err := models.GetBatch(ctx, input.BatchId)
	if err != nil {
		return nil, err
	}
	if batch.Stage != models.BatchStageMarketplace {
		return nil, fmt.Errorf("batch %s is at stage %s, reconciliation applies to marketplace batches only", batch.ID, batch.Stage)
	}

	report := models.Reconcile(batch.ID, batch.Quantity, input.ReportedQuantity)
	report.Source = input.Source
	report.Resolved = utils.NewFalse()
	if report.Status == models.ReconciliationStatusMatched {
		// Nothing to chase on an exact match.
		report.Resolved = utils.NewTrue()
	}

	if err := db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ResolveReconciliation closes a discrepancy report by posting the adjustment
// that brings the batch's ledger in line with the reported quantity.
func ResolveReconciliation(ctx context.Context, input *ResolveReconciliationInput) (*models.ReconciliationReport, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	var report models.ReconciliationReport
	err := db.WithContext(ctx).Where("id = ?", input.ReportId).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if report.Resolved != nil && *report.Resolved {
		return nil, fmt.Errorf("reconciliation report %s is already resolved", report.ID)
	}

	guard := acquireRedisGuard(ctx, "batch:"+report.BatchId)
	defer releaseRedisGuard(ctx, guard)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := AcquireBatchPostingLock(tx, report.BatchId); err != nil {
		return nil, err
	}
	defer ReleaseBatchPostingLock(tx, report.BatchId)

	batch, err := models.FetchBatchForChange(tx.WithContext(ctx), report.BatchId)
	if err != nil {
		return nil, err
	}

	// The discrepancy was measured against the quantity at report time; only
	// adjust if the gap is still there.
	delta := report.ReportedQuantity - batch.Quantity
	if delta < 0 {
		// A shrinkage adjustment must not leave less on hand than is openly
		// reserved; the caller has to release allocations first.
		openTotal, err := models.OpenAllocationTotal(tx.WithContext(ctx), batch.ID)
		if err != nil {
			return nil, err
		}
		if report.ReportedQuantity < openTotal {
			return nil, fmt.Errorf("batch %s: adjusting to %d would undercut %d openly allocated units: %w", batch.ID, report.ReportedQuantity, openTotal, models.ErrBatchOverAllocated)
		}
	}
	if delta != 0 {
		reason := fmt.Sprintf("Reconciliation %s: %s", report.ID, input.Note)
		if _, err := models.RecordStockMovement(tx.WithContext(ctx), batch, batch.LocationId, models.MovementTypeAdjustment, delta, reason); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := tx.WithContext(ctx).Model(&report).Updates(map[string]interface{}{
		"Resolved":       true,
		"ResolutionNote": input.Note,
		"ResolvedAt":     now,
	}).Error; err != nil {
		return nil, err
	}
	report.Resolved = utils.NewTrue()
	report.ResolutionNote = input.Note
	report.ResolvedAt = &now

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &report, nil
}
