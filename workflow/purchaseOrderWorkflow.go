package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
	"gorm.io/gorm"
)

type PurchaseOrderStatusInput struct {
	PurchaseOrderId int    `json:"purchase_order_id" validate:"required"`
	TargetStatus    string `json:"target_status" validate:"required"`
	Note            string `json:"note"`
}

// ApplyPurchaseOrderStatus moves a purchase order along its status graph.
// Only statically declared edges are legal; every applied transition appends
// a status history event tagged forward, back or cancel.
func ApplyPurchaseOrderStatus(ctx context.Context, input *PurchaseOrderStatusInput) (*models.PurchaseOrder, error) {
	db := config.GetDB()

	target, err := models.ParsePurchaseOrderStatus(input.TargetStatus)
	if err != nil {
		return nil, err
	}

	guard := acquireRedisGuard(ctx, fmt.Sprintf("purchase_order:%d", input.PurchaseOrderId))
	defer releaseRedisGuard(ctx, guard)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := AcquirePurchaseOrderLock(tx, input.PurchaseOrderId); err != nil {
		return nil, err
	}
	defer ReleasePurchaseOrderLock(tx, input.PurchaseOrderId)

	var po models.PurchaseOrder
	err = tx.WithContext(ctx).Where("id = ?", input.PurchaseOrderId).First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	kind, ok := models.TransitionKindFor(po.CurrentStatus, target)
	if !ok {
		return nil, fmt.Errorf("purchase order %d: %s -> %s: %w", po.ID, po.CurrentStatus, target, models.ErrIllegalTransition)
	}

	event := models.PurchaseOrderStatusEvent{
		PurchaseOrderId: po.ID,
		FromStatus:      po.CurrentStatus,
		ToStatus:        target,
		Kind:            kind,
		Note:            input.Note,
	}
	if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&po).UpdateColumn("CurrentStatus", target).Error; err != nil {
		return nil, err
	}
	po.CurrentStatus = target

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &po, nil
}
