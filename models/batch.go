package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/utils"
	"gorm.io/gorm"
)

// Batch is a physical lot of one SKU moving through the procurement pipeline.
// Quantity is the nominal on-hand unit count and is NOT reduced by draft
// allocations; it is a derived cache of the batch's ledger balance and must be
// updated in the same transaction as every ledger write.
type Batch struct {
	ID              string          `gorm:"size:36;primary_key" json:"id"` // uuid
	Sku             string          `gorm:"size:100;index;not null" json:"sku"`
	ProductName     string          `gorm:"size:255;not null" json:"product_name"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	Stage           BatchStage      `gorm:"type:enum('ordered','factory','inspected','ready_to_ship','in_transit','warehouse','marketplace');not null;index" json:"stage"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id"`
	LocationId      string          `gorm:"size:100" json:"location_id"`
	OrderedDate     time.Time       `gorm:"not null" json:"ordered_date"`
	ExpectedArrival *time.Time      `gorm:"default:null" json:"expected_arrival"`
	ActualArrival   *time.Time      `gorm:"default:null" json:"actual_arrival"`
	// LineageOf points at the batch this one was split or merged from (audit).
	LineageOf    *string           `gorm:"size:36;index" json:"lineage_of"`
	Active       *bool             `gorm:"not null;default:true;index" json:"active"`
	StageHistory []BatchStageEvent `gorm:"foreignKey:BatchId" json:"stage_history"`
	Documents    []*Document       `gorm:"polymorphic:Reference" json:"documents"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// BatchStageEvent is one entry of a batch's append-only stage history.
// Rows are only ever inserted; the batch's current Stage always equals the
// stage of its latest event.
type BatchStageEvent struct {
	ID        int        `gorm:"primary_key" json:"id"`
	BatchId   string     `gorm:"size:36;index;not null" json:"batch_id"`
	Stage     BatchStage `gorm:"type:enum('ordered','factory','inspected','ready_to_ship','in_transit','warehouse','marketplace');not null" json:"stage"`
	Note      string     `gorm:"type:text" json:"note"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

type NewBatch struct {
	PurchaseOrderId int             `json:"purchase_order_id" validate:"required"`
	Sku             string          `json:"sku" validate:"required"`
	ProductName     string          `json:"product_name" validate:"required"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LocationId      string          `json:"location_id"`
	ExpectedArrival *time.Time      `json:"expected_arrival"`
	Note            string          `json:"note"`
	Documents       []*NewDocument  `json:"documents"`
}

// RoundMoney rounds a monetary amount half-up to currency precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RecomputeTotalCost refreshes the TotalCost cache from quantity * unit cost.
func (b *Batch) RecomputeTotalCost() {
	b.TotalCost = RoundMoney(b.UnitCost.Mul(decimal.NewFromInt(int64(b.Quantity))))
}

// CreateBatchForPurchaseOrder creates a batch against a goods-ready purchase
// order: the batch row, its opening receipt ledger entry, and the seed stage
// event are written in one transaction.
func CreateBatchForPurchaseOrder(ctx context.Context, input *NewBatch) (*Batch, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.UnitCost.IsNegative() {
		return nil, errors.New("unit cost cannot be negative")
	}

	po, err := GetPurchaseOrder(ctx, input.PurchaseOrderId)
	if err != nil {
		return nil, err
	}
	if !BatchCreationAllowed(po.CurrentStatus) {
		return nil, fmt.Errorf("purchase order %d is not ready for receiving (status %s)", po.ID, po.CurrentStatus)
	}

	documents, err := mapNewDocuments(input.Documents, "batches", 0)
	if err != nil {
		return nil, err
	}

	batch := Batch{
		ID:              uuid.NewString(),
		Sku:             input.Sku,
		ProductName:     input.ProductName,
		Quantity:        0,
		UnitCost:        input.UnitCost,
		TotalCost:       decimal.NewFromInt(0),
		Stage:           BatchStageOrdered,
		PurchaseOrderId: po.ID,
		SupplierId:      po.SupplierId,
		LocationId:      input.LocationId,
		OrderedDate:     po.OrderDate,
		ExpectedArrival: input.ExpectedArrival,
		Active:          utils.NewTrue(),
		Documents:       documents,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}

	// Opening receipt. This also brings Batch.Quantity up from zero so the
	// ledger-balance invariant holds from the first write.
	if _, err := RecordStockMovement(tx.WithContext(ctx), &batch, input.LocationId, MovementTypeReceipt, input.Quantity, "Batch received against "+po.PoNumber); err != nil {
		return nil, err
	}

	if err := AppendStageEvent(tx.WithContext(ctx), &batch, BatchStageOrdered, input.Note); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// AppendStageEvent inserts a stage event and syncs the batch's current stage
// inside the caller's transaction. History rows are never updated or deleted.
func AppendStageEvent(tx *gorm.DB, batch *Batch, stage BatchStage, note string) error {
	event := BatchStageEvent{
		BatchId: batch.ID,
		Stage:   stage,
		Note:    note,
	}
	if err := tx.Create(&event).Error; err != nil {
		return err
	}
	if err := tx.Model(batch).UpdateColumn("Stage", stage).Error; err != nil {
		return err
	}
	batch.Stage = stage
	batch.StageHistory = append(batch.StageHistory, event)
	return nil
}

func GetBatch(ctx context.Context, id string) (*Batch, error) {
	db := config.GetDB()
	var batch Batch
	err := db.WithContext(ctx).
		Preload("StageHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Documents").
		Where("id = ?", id).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// FetchBatchForChange loads a batch inside an open transaction. Callers must
// hold the batch posting lock before calling so the read is not stale.
func FetchBatchForChange(tx *gorm.DB, id string) (*Batch, error) {
	var batch Batch
	err := tx.Where("id = ?", id).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func GetBatches(ctx context.Context, stage *BatchStage, sku *string, purchaseOrderId *int, activeOnly bool) ([]*Batch, error) {
	db := config.GetDB()
	var results []*Batch

	dbCtx := db.WithContext(ctx)
	if stage != nil {
		dbCtx = dbCtx.Where("stage = ?", *stage)
	}
	if sku != nil && len(*sku) > 0 {
		dbCtx = dbCtx.Where("sku = ?", *sku)
	}
	if purchaseOrderId != nil && *purchaseOrderId > 0 {
		dbCtx = dbCtx.Where("purchase_order_id = ?", *purchaseOrderId)
	}
	if activeOnly {
		dbCtx = dbCtx.Where("active = ?", true)
	}
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
