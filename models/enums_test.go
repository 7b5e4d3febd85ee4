package models

import (
	"errors"
	"testing"
)

func TestMovementQuantityValid_SignRules(t *testing.T) {
	cases := []struct {
		movementType MovementType
		qty          int
		want         bool
	}{
		{MovementTypeReceipt, 100, true},
		{MovementTypeReceipt, -100, false},
		{MovementTypeReceipt, 0, false},
		{MovementTypeSplitIn, 40, true},
		{MovementTypeSplitOut, -40, true},
		{MovementTypeSplitOut, 40, false},
		{MovementTypeMergeIn, 500, true},
		{MovementTypeMergeOut, -300, true},
		{MovementTypeMergeOut, 300, false},
		{MovementTypeTransferIn, 10, true},
		{MovementTypeTransferOut, -10, true},
		{MovementTypeTransferOut, 10, false},
		// Adjustment is the only type that can move either direction.
		{MovementTypeAdjustment, 15, true},
		{MovementTypeAdjustment, -15, true},
		{MovementTypeAdjustment, 0, false},
		{MovementType("bogus"), 1, false},
	}
	for _, tc := range cases {
		if got := MovementQuantityValid(tc.movementType, tc.qty); got != tc.want {
			t.Errorf("MovementQuantityValid(%s, %d) = %v, want %v", tc.movementType, tc.qty, got, tc.want)
		}
	}
}

func TestParseBatchStage(t *testing.T) {
	for _, s := range []string{"ordered", "factory", "inspected", "ready_to_ship", "in_transit", "warehouse", "marketplace"} {
		stage, err := ParseBatchStage(s)
		if err != nil {
			t.Fatalf("ParseBatchStage(%q) failed: %v", s, err)
		}
		if string(stage) != s {
			t.Fatalf("ParseBatchStage(%q) = %q", s, stage)
		}
	}

	if _, err := ParseBatchStage("customs"); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage for unknown stage, got %v", err)
	}
	// Stage names are exact; case variants are unknown.
	if _, err := ParseBatchStage("Warehouse"); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage for cased stage, got %v", err)
	}
}

func TestParsePurchaseOrderStatus(t *testing.T) {
	status, err := ParsePurchaseOrderStatus("production_complete")
	if err != nil {
		t.Fatalf("ParsePurchaseOrderStatus failed: %v", err)
	}
	if status != PurchaseOrderStatusProductionComplete {
		t.Fatalf("got %q", status)
	}
	if _, err := ParsePurchaseOrderStatus("shipped"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus for unknown status, got %v", err)
	}
}
