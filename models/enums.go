package models

// --- Batch pipeline ---

type BatchStage string

const (
	BatchStageOrdered     BatchStage = "ordered"
	BatchStageFactory     BatchStage = "factory"
	BatchStageInspected   BatchStage = "inspected"
	BatchStageReadyToShip BatchStage = "ready_to_ship"
	BatchStageInTransit   BatchStage = "in_transit"
	BatchStageWarehouse   BatchStage = "warehouse"
	BatchStageMarketplace BatchStage = "marketplace"
)

var batchStages = map[string]BatchStage{
	"ordered":       BatchStageOrdered,
	"factory":       BatchStageFactory,
	"inspected":     BatchStageInspected,
	"ready_to_ship": BatchStageReadyToShip,
	"in_transit":    BatchStageInTransit,
	"warehouse":     BatchStageWarehouse,
	"marketplace":   BatchStageMarketplace,
}

// ParseBatchStage maps a caller-provided stage string onto the known pipeline
// stages. Callers must treat an error as ErrUnknownStage.
func ParseBatchStage(s string) (BatchStage, error) {
	stage, ok := batchStages[s]
	if !ok {
		return "", ErrUnknownStage
	}
	return stage, nil
}

// --- Stock ledger ---

type MovementType string

const (
	MovementTypeReceipt     MovementType = "receipt"
	MovementTypeSplitOut    MovementType = "split_out"
	MovementTypeSplitIn     MovementType = "split_in"
	MovementTypeMergeOut    MovementType = "merge_out"
	MovementTypeMergeIn     MovementType = "merge_in"
	MovementTypeTransferOut MovementType = "transfer_out"
	MovementTypeTransferIn  MovementType = "transfer_in"
	MovementTypeAdjustment  MovementType = "adjustment"
)

// movementSigns maps each movement type to the sign its quantity must carry.
// Adjustment is the only type allowed to move in either direction.
var movementSigns = map[MovementType]int{
	MovementTypeReceipt:     +1,
	MovementTypeSplitIn:     +1,
	MovementTypeMergeIn:     +1,
	MovementTypeTransferIn:  +1,
	MovementTypeSplitOut:    -1,
	MovementTypeMergeOut:    -1,
	MovementTypeTransferOut: -1,
	MovementTypeAdjustment:  0,
}

// MovementQuantityValid reports whether qty is legal for the movement type:
// non-zero, and matching the type's direction.
func MovementQuantityValid(movementType MovementType, qty int) bool {
	sign, ok := movementSigns[movementType]
	if !ok {
		return false
	}
	if qty == 0 {
		return false
	}
	if sign > 0 && qty < 0 {
		return false
	}
	if sign < 0 && qty > 0 {
		return false
	}
	return true
}

// --- Allocations ---

type AllocationStatus string

const (
	AllocationStatusOpen      AllocationStatus = "open"
	AllocationStatusCommitted AllocationStatus = "committed"
	AllocationStatusReleased  AllocationStatus = "released"
)

// --- Purchase order workflow ---

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft              PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent               PurchaseOrderStatus = "sent"
	PurchaseOrderStatusAwaitingInvoice    PurchaseOrderStatus = "awaiting_invoice"
	PurchaseOrderStatusInvoiceReceived    PurchaseOrderStatus = "invoice_received"
	PurchaseOrderStatusConfirmed          PurchaseOrderStatus = "confirmed"
	PurchaseOrderStatusProductionComplete PurchaseOrderStatus = "production_complete"
	PurchaseOrderStatusReadyToShip        PurchaseOrderStatus = "ready_to_ship"
	PurchaseOrderStatusPartiallyReceived  PurchaseOrderStatus = "partially_received"
	PurchaseOrderStatusReceived           PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled          PurchaseOrderStatus = "cancelled"
)

var purchaseOrderStatuses = map[string]PurchaseOrderStatus{
	"draft":               PurchaseOrderStatusDraft,
	"sent":                PurchaseOrderStatusSent,
	"awaiting_invoice":    PurchaseOrderStatusAwaitingInvoice,
	"invoice_received":    PurchaseOrderStatusInvoiceReceived,
	"confirmed":           PurchaseOrderStatusConfirmed,
	"production_complete": PurchaseOrderStatusProductionComplete,
	"ready_to_ship":       PurchaseOrderStatusReadyToShip,
	"partially_received":  PurchaseOrderStatusPartiallyReceived,
	"received":            PurchaseOrderStatusReceived,
	"cancelled":           PurchaseOrderStatusCancelled,
}

func ParsePurchaseOrderStatus(s string) (PurchaseOrderStatus, error) {
	status, ok := purchaseOrderStatuses[s]
	if !ok {
		return "", ErrUnknownStatus
	}
	return status, nil
}

// TransitionKind tags each edge of the purchase order status graph.
type TransitionKind string

const (
	TransitionKindForward TransitionKind = "forward"
	TransitionKindBack    TransitionKind = "back"
	TransitionKindCancel  TransitionKind = "cancel"
)

// --- Reconciliation ---

type ReconciliationStatus string

const (
	ReconciliationStatusMatched     ReconciliationStatus = "matched"
	ReconciliationStatusDiscrepancy ReconciliationStatus = "discrepancy"
)
