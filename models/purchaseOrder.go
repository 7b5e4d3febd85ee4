package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrder struct {
	ID                   int                        `gorm:"primary_key" json:"id"`
	PoNumber             string                     `gorm:"size:255;not null;uniqueIndex" json:"po_number"`
	SequenceNo           int                        `gorm:"not null" json:"sequence_no"`
	SupplierId           int                        `gorm:"index;not null" json:"supplier_id"`
	OrderDate            time.Time                  `gorm:"not null" json:"order_date"`
	ExpectedDeliveryDate *time.Time                 `gorm:"default:null" json:"expected_delivery_date"`
	Notes                string                     `gorm:"type:text" json:"notes"`
	CurrentStatus        PurchaseOrderStatus        `gorm:"type:enum('draft','sent','awaiting_invoice','invoice_received','confirmed','production_complete','ready_to_ship','partially_received','received','cancelled');not null;index" json:"current_status"`
	OrderSubtotal        decimal.Decimal            `gorm:"type:decimal(20,4);default:0" json:"order_subtotal"`
	AdjustmentAmount     decimal.Decimal            `gorm:"type:decimal(20,4);default:0" json:"adjustment_amount"`
	OrderTotalAmount     decimal.Decimal            `gorm:"type:decimal(20,4);default:0" json:"order_total_amount"`
	Details              []PurchaseOrderDetail      `json:"purchase_order_details"`
	StatusHistory        []PurchaseOrderStatusEvent `gorm:"foreignKey:PurchaseOrderId" json:"status_history"`
	Documents            []*Document                `gorm:"polymorphic:Reference" json:"documents"`
	CreatedAt            time.Time                  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time                  `gorm:"autoUpdateTime" json:"updated_at"`
}

// PurchaseOrderDetail is one line of a purchase order. Sku, product name and
// unit rate are caller-supplied catalog snapshots; the core does not validate
// SKU existence.
type PurchaseOrderDetail struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId   int             `gorm:"index;not null" json:"purchase_order_id"`
	Sku               string          `gorm:"size:100;not null" json:"sku"`
	ProductName       string          `gorm:"size:255;not null" json:"product_name"`
	DetailQty         int             `gorm:"not null" json:"detail_qty"`
	DetailUnitRate    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_unit_rate"`
	DetailTotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_total_amount"`
}

// PurchaseOrderStatusEvent is one entry of a purchase order's append-only
// status history.
type PurchaseOrderStatusEvent struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	PurchaseOrderId int                 `gorm:"index;not null" json:"purchase_order_id"`
	FromStatus      PurchaseOrderStatus `gorm:"type:enum('draft','sent','awaiting_invoice','invoice_received','confirmed','production_complete','ready_to_ship','partially_received','received','cancelled');not null" json:"from_status"`
	ToStatus        PurchaseOrderStatus `gorm:"type:enum('draft','sent','awaiting_invoice','invoice_received','confirmed','production_complete','ready_to_ship','partially_received','received','cancelled');not null" json:"to_status"`
	Kind            TransitionKind      `gorm:"type:enum('forward','back','cancel');not null" json:"kind"`
	Note            string              `gorm:"type:text" json:"note"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

// PoSequence hands out per-prefix sequence numbers for PO numbering.
type PoSequence struct {
	Prefix string `gorm:"size:20;primary_key" json:"prefix"`
	NextNo int    `gorm:"not null;default:1" json:"next_no"`
}

type NewPurchaseOrder struct {
	SupplierId           int                      `json:"supplier_id" validate:"required"`
	OrderDate            time.Time                `json:"order_date" validate:"required"`
	ExpectedDeliveryDate *time.Time               `json:"expected_delivery_date"`
	Notes                string                   `json:"notes"`
	AdjustmentAmount     decimal.Decimal          `json:"adjustment_amount"`
	Details              []NewPurchaseOrderDetail `json:"details" validate:"required,min=1,dive"`
	Documents            []*NewDocument           `json:"documents"`
}

type NewPurchaseOrderDetail struct {
	Sku            string          `json:"sku" validate:"required"`
	ProductName    string          `json:"product_name" validate:"required"`
	DetailQty      int             `json:"detail_qty" validate:"required,gt=0"`
	DetailUnitRate decimal.Decimal `json:"detail_unit_rate"`
}

type statusEdge struct {
	target PurchaseOrderStatus
	kind   TransitionKind
}

// purchaseOrderEdges is the static transition graph over the ten statuses.
// received and cancelled have no forward edges; cancelled is reachable back
// only to draft (explicit reopen).
var purchaseOrderEdges = map[PurchaseOrderStatus][]statusEdge{
	PurchaseOrderStatusDraft: {
		{PurchaseOrderStatusSent, TransitionKindForward},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusSent: {
		{PurchaseOrderStatusAwaitingInvoice, TransitionKindForward},
		{PurchaseOrderStatusDraft, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusAwaitingInvoice: {
		{PurchaseOrderStatusInvoiceReceived, TransitionKindForward},
		{PurchaseOrderStatusSent, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusInvoiceReceived: {
		{PurchaseOrderStatusConfirmed, TransitionKindForward},
		{PurchaseOrderStatusAwaitingInvoice, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusConfirmed: {
		{PurchaseOrderStatusProductionComplete, TransitionKindForward},
		{PurchaseOrderStatusInvoiceReceived, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusProductionComplete: {
		{PurchaseOrderStatusReadyToShip, TransitionKindForward},
		{PurchaseOrderStatusConfirmed, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusReadyToShip: {
		{PurchaseOrderStatusPartiallyReceived, TransitionKindForward},
		{PurchaseOrderStatusReceived, TransitionKindForward},
		{PurchaseOrderStatusProductionComplete, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusPartiallyReceived: {
		{PurchaseOrderStatusReceived, TransitionKindForward},
		{PurchaseOrderStatusReadyToShip, TransitionKindBack},
		{PurchaseOrderStatusCancelled, TransitionKindCancel},
	},
	PurchaseOrderStatusReceived: {
		{PurchaseOrderStatusPartiallyReceived, TransitionKindBack},
	},
	PurchaseOrderStatusCancelled: {
		{PurchaseOrderStatusDraft, TransitionKindBack}, // reopen
	},
}

// TransitionKindFor reports whether from -> to is a declared edge and, if so,
// how it is tagged.
func TransitionKindFor(from, to PurchaseOrderStatus) (TransitionKind, bool) {
	for _, edge := range purchaseOrderEdges[from] {
		if edge.target == to {
			return edge.kind, true
		}
	}
	return "", false
}

// BatchCreationAllowed reports whether batches may be received against a
// purchase order in the given status: production_complete or later on the
// happy path.
func BatchCreationAllowed(status PurchaseOrderStatus) bool {
	switch status {
	case PurchaseOrderStatusProductionComplete,
		PurchaseOrderStatusReadyToShip,
		PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusReceived:
		return true
	}
	return false
}

// SupplierActionsEnabled reports whether supplier-facing actions (send/resend)
// make sense for the status. Enforcement is the caller's job.
func SupplierActionsEnabled(status PurchaseOrderStatus) bool {
	return status == PurchaseOrderStatusDraft || status == PurchaseOrderStatusSent
}

func nextPoSequence(tx *gorm.DB, prefix string) (int, error) {
	var seq PoSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ?", prefix).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = PoSequence{Prefix: prefix, NextNo: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	no := seq.NextNo
	if err := tx.Model(&PoSequence{}).Where("prefix = ?", prefix).
		UpdateColumn("NextNo", no+1).Error; err != nil {
		return 0, err
	}
	return no, nil
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	documents, err := mapNewDocuments(input.Documents, "purchase_orders", 0)
	if err != nil {
		return nil, err
	}

	var details []PurchaseOrderDetail
	var orderSubtotal decimal.Decimal

	for _, item := range input.Details {
		if item.DetailUnitRate.IsNegative() {
			return nil, errors.New("detail unit rate cannot be negative")
		}
		detail := PurchaseOrderDetail{
			Sku:            item.Sku,
			ProductName:    item.ProductName,
			DetailQty:      item.DetailQty,
			DetailUnitRate: item.DetailUnitRate,
		}
		detail.DetailTotalAmount = RoundMoney(item.DetailUnitRate.Mul(decimal.NewFromInt(int64(item.DetailQty))))
		orderSubtotal = orderSubtotal.Add(detail.DetailTotalAmount)
		details = append(details, detail)
	}

	purchaseOrder := PurchaseOrder{
		SupplierId:           input.SupplierId,
		OrderDate:            input.OrderDate,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		Notes:                input.Notes,
		CurrentStatus:        PurchaseOrderStatusDraft,
		OrderSubtotal:        orderSubtotal,
		AdjustmentAmount:     input.AdjustmentAmount,
		OrderTotalAmount:     RoundMoney(orderSubtotal.Add(input.AdjustmentAmount)),
		Details:              details,
		Documents:            documents,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	seqNo, err := nextPoSequence(tx.WithContext(ctx), "PO-")
	if err != nil {
		return nil, err
	}
	purchaseOrder.SequenceNo = seqNo
	purchaseOrder.PoNumber = fmt.Sprintf("PO-%d", seqNo)

	if err := tx.WithContext(ctx).Create(&purchaseOrder).Error; err != nil {
		return nil, err
	}

	// Seed the status history with the draft status.
	seed := PurchaseOrderStatusEvent{
		PurchaseOrderId: purchaseOrder.ID,
		FromStatus:      PurchaseOrderStatusDraft,
		ToStatus:        PurchaseOrderStatusDraft,
		Kind:            TransitionKindForward,
		Note:            "created",
	}
	if err := tx.WithContext(ctx).Create(&seed).Error; err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchaseOrder, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	db := config.GetDB()
	var po PurchaseOrder
	err := db.WithContext(ctx).
		Preload("Details").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Documents").
		Where("id = ?", id).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func GetPurchaseOrders(ctx context.Context, poNumber *string, status *PurchaseOrderStatus, supplierId *int) ([]*PurchaseOrder, error) {
	db := config.GetDB()
	var results []*PurchaseOrder

	dbCtx := db.WithContext(ctx)
	if poNumber != nil && len(*poNumber) > 0 {
		dbCtx = dbCtx.Where("po_number LIKE ?", "%"+*poNumber+"%")
	}
	if status != nil {
		dbCtx = dbCtx.Where("current_status = ?", *status)
	}
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
