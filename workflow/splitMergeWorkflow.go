package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
)

type SplitBatchInput struct {
	BatchId string `json:"batch_id" validate:"required"`
	// No validate tag: a non-positive quantity must surface as
	// ErrInvalidSplitQuantity, not a validator error.
	SplitQuantity int    `json:"split_quantity"`
	LocationId    string `json:"location_id"`
	Note          string `json:"note"`
}

type MergeBatchesInput struct {
	BatchIds []string `json:"batch_ids" validate:"required,min=2,dive,required"`
	Note     string   `json:"note"`
}

// SplitBatch carves a new batch out of an existing one. Quantity moves via a
// split_out/split_in entry pair; cost follows SplitCostBasis so the two totals
// always sum back to the original. The split quantity must come out of the
// unallocated part of the batch.
func SplitBatch(ctx context.Context, input *SplitBatchInput) (*models.Batch, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.SplitQuantity <= 0 {
		return nil, fmt.Errorf("batch %s: split of %d: %w", input.BatchId, input.SplitQuantity, models.ErrInvalidSplitQuantity)
	}

	db := config.GetDB()

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

	source, err := models.FetchBatchForChange(tx.WithContext(ctx), input.BatchId)
	if err != nil {
		return nil, err
	}
	if source.Active == nil || !*source.Active {
		return nil, fmt.Errorf("batch %s: %w", source.ID, models.ErrInactiveBatch)
	}
	if input.SplitQuantity <= 0 || input.SplitQuantity >= source.Quantity {
		return nil, fmt.Errorf("batch %s: split of %d from %d: %w", source.ID, input.SplitQuantity, source.Quantity, models.ErrInvalidSplitQuantity)
	}

	available, err := models.AvailableQuantity(tx.WithContext(ctx), source)
	if err != nil {
		return nil, err
	}
	if input.SplitQuantity > available {
		// Reserved stock cannot be split away.
		return nil, fmt.Errorf("batch %s: split of %d exceeds available %d: %w", source.ID, input.SplitQuantity, available, models.ErrBatchOverAllocated)
	}

	splitTotal, remainingTotal := SplitCostBasis(source.UnitCost, source.TotalCost, input.SplitQuantity)

	child := models.Batch{
		ID:              uuid.NewString(),
		Sku:             source.Sku,
		ProductName:     source.ProductName,
		Quantity:        0,
		UnitCost:        source.UnitCost,
		TotalCost:       decimal.Zero,
		Stage:           source.Stage,
		PurchaseOrderId: source.PurchaseOrderId,
		SupplierId:      source.SupplierId,
		LocationId:      source.LocationId,
		OrderedDate:     source.OrderedDate,
		ExpectedArrival: source.ExpectedArrival,
		ActualArrival:   source.ActualArrival,
		LineageOf:       &source.ID,
		Active:          utils.NewTrue(),
	}
	if input.LocationId != "" {
		child.LocationId = input.LocationId
	}
	if err := tx.WithContext(ctx).Create(&child).Error; err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("Split %d units to batch %s", input.SplitQuantity, child.ID)
	if input.Note != "" {
		reason = reason + ": " + input.Note
	}
	if _, err := models.RecordStockMovement(tx.WithContext(ctx), source, source.LocationId, models.MovementTypeSplitOut, -input.SplitQuantity, reason); err != nil {
		return nil, err
	}
	if _, err := models.RecordStockMovement(tx.WithContext(ctx), &child, child.LocationId, models.MovementTypeSplitIn, input.SplitQuantity, fmt.Sprintf("Split %d units from batch %s", input.SplitQuantity, source.ID)); err != nil {
		return nil, err
	}

	// RecordStockMovement recomputed both totals as qty * unit cost; pin the
	// residual-to-remainder basis so the totals conserve to the cent.
	if err := tx.WithContext(ctx).Model(&child).UpdateColumn("TotalCost", splitTotal).Error; err != nil {
		return nil, err
	}
	child.TotalCost = splitTotal
	if err := tx.WithContext(ctx).Model(source).UpdateColumn("TotalCost", remainingTotal).Error; err != nil {
		return nil, err
	}
	source.TotalCost = remainingTotal

	if err := models.AppendStageEvent(tx.WithContext(ctx), &child, source.Stage, fmt.Sprintf("Split from batch %s", source.ID)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &child, nil
}

// MergeBatches collapses two or more batches of the same SKU and stage into
// one. Sources must carry no open allocations and, unless the ignore flag is
// set, no unresolved marketplace discrepancies. The merged batch's unit cost
// is the weighted average of the sources, rounded half-up to the cent.
func MergeBatches(ctx context.Context, input *MergeBatchesInput) (*models.Batch, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, id := range input.BatchIds {
		if seen[id] {
			return nil, fmt.Errorf("batch %s listed twice", id)
		}
		seen[id] = true
	}

	guard := acquireRedisGuard(ctx, "merge:"+strings.Join(input.BatchIds, ","))
	defer releaseRedisGuard(ctx, guard)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	locked, err := AcquireBatchPostingLocks(tx, input.BatchIds)
	if err != nil {
		return nil, err
	}
	defer ReleaseBatchPostingLocks(tx, locked)

	sources := make([]*models.Batch, 0, len(input.BatchIds))
	for _, id := range input.BatchIds {
		batch, err := models.FetchBatchForChange(tx.WithContext(ctx), id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, batch)
	}

	first := sources[0]
	totalQty := 0
	totalCost := decimal.Zero
	for _, batch := range sources {
		if batch.Active == nil || !*batch.Active {
			return nil, fmt.Errorf("batch %s: %w", batch.ID, models.ErrInactiveBatch)
		}
		if batch.Sku != first.Sku {
			return nil, fmt.Errorf("batch %s has sku %s, expected %s", batch.ID, batch.Sku, first.Sku)
		}
		if batch.Stage != first.Stage {
			return nil, fmt.Errorf("batch %s is at stage %s, expected %s", batch.ID, batch.Stage, first.Stage)
		}
		openTotal, err := models.OpenAllocationTotal(tx.WithContext(ctx), batch.ID)
		if err != nil {
			return nil, err
		}
		if openTotal > 0 {
			return nil, fmt.Errorf("batch %s has %d units openly allocated: %w", batch.ID, openTotal, models.ErrOpenAllocationsBlockMerge)
		}
		if !config.MergeIgnoreOpenDiscrepancy() {
			open, err := models.HasOpenDiscrepancy(ctx, batch.ID)
			if err != nil {
				return nil, err
			}
			if open {
				return nil, fmt.Errorf("batch %s has an unresolved reconciliation discrepancy", batch.ID)
			}
		}
		totalQty += batch.Quantity
		totalCost = totalCost.Add(batch.TotalCost)
	}
	if totalQty <= 0 {
		return nil, fmt.Errorf("merge of %d batches has no quantity", len(sources))
	}

	merged := models.Batch{
		ID:              uuid.NewString(),
		Sku:             first.Sku,
		ProductName:     first.ProductName,
		Quantity:        0,
		UnitCost:        WeightedAverageUnitCost(totalCost, totalQty),
		TotalCost:       decimal.Zero,
		Stage:           first.Stage,
		PurchaseOrderId: first.PurchaseOrderId,
		SupplierId:      first.SupplierId,
		LocationId:      first.LocationId,
		OrderedDate:     first.OrderedDate,
		ExpectedArrival: first.ExpectedArrival,
		ActualArrival:   first.ActualArrival,
		LineageOf:       &first.ID,
		Active:          utils.NewTrue(),
	}
	if err := tx.WithContext(ctx).Create(&merged).Error; err != nil {
		return nil, err
	}

	for _, batch := range sources {
		reason := fmt.Sprintf("Merged into batch %s", merged.ID)
		if input.Note != "" {
			reason = reason + ": " + input.Note
		}
		if _, err := models.RecordStockMovement(tx.WithContext(ctx), batch, batch.LocationId, models.MovementTypeMergeOut, -batch.Quantity, reason); err != nil {
			return nil, err
		}
		if err := tx.WithContext(ctx).Model(batch).UpdateColumn("Active", false).Error; err != nil {
			return nil, err
		}
	}

	sourceIds := make([]string, 0, len(sources))
	for _, batch := range sources {
		sourceIds = append(sourceIds, batch.ID)
	}
	if _, err := models.RecordStockMovement(tx.WithContext(ctx), &merged, merged.LocationId, models.MovementTypeMergeIn, totalQty, "Merged from batches "+strings.Join(sourceIds, ", ")); err != nil {
		return nil, err
	}

	// Conserve the summed source cost exactly; the rounded average times the
	// quantity can drift a cent.
	if err := tx.WithContext(ctx).Model(&merged).UpdateColumn("TotalCost", totalCost).Error; err != nil {
		return nil, err
	}
	merged.TotalCost = totalCost

	if err := models.AppendStageEvent(tx.WithContext(ctx), &merged, first.Stage, "Merged from batches "+strings.Join(sourceIds, ", ")); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &merged, nil
}
