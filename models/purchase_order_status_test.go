package models

import "testing"

func TestTransitionKindFor_HappyPath(t *testing.T) {
	path := []PurchaseOrderStatus{
		PurchaseOrderStatusDraft,
		PurchaseOrderStatusSent,
		PurchaseOrderStatusAwaitingInvoice,
		PurchaseOrderStatusInvoiceReceived,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusProductionComplete,
		PurchaseOrderStatusReadyToShip,
		PurchaseOrderStatusPartiallyReceived,
		PurchaseOrderStatusReceived,
	}
	for i := 0; i < len(path)-1; i++ {
		kind, ok := TransitionKindFor(path[i], path[i+1])
		if !ok {
			t.Fatalf("%s -> %s should be legal", path[i], path[i+1])
		}
		if kind != TransitionKindForward {
			t.Fatalf("%s -> %s tagged %s, want forward", path[i], path[i+1], kind)
		}
	}
}

func TestTransitionKindFor_SkippingIsIllegal(t *testing.T) {
	cases := []struct{ from, to PurchaseOrderStatus }{
		{PurchaseOrderStatusSent, PurchaseOrderStatusReceived},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusConfirmed},
		{PurchaseOrderStatusAwaitingInvoice, PurchaseOrderStatusProductionComplete},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusDraft},
	}
	for _, tc := range cases {
		if _, ok := TransitionKindFor(tc.from, tc.to); ok {
			t.Errorf("%s -> %s should be illegal", tc.from, tc.to)
		}
	}
}

func TestTransitionKindFor_BackAndCancelEdges(t *testing.T) {
	kind, ok := TransitionKindFor(PurchaseOrderStatusSent, PurchaseOrderStatusDraft)
	if !ok || kind != TransitionKindBack {
		t.Fatalf("sent -> draft = (%s, %v), want back edge", kind, ok)
	}
	kind, ok = TransitionKindFor(PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled)
	if !ok || kind != TransitionKindCancel {
		t.Fatalf("confirmed -> cancelled = (%s, %v), want cancel edge", kind, ok)
	}
	// A fully received order can only be corrected backwards.
	kind, ok = TransitionKindFor(PurchaseOrderStatusReceived, PurchaseOrderStatusPartiallyReceived)
	if !ok || kind != TransitionKindBack {
		t.Fatalf("received -> partially_received = (%s, %v), want back edge", kind, ok)
	}
	// Cancelled reopens to draft and nowhere else.
	kind, ok = TransitionKindFor(PurchaseOrderStatusCancelled, PurchaseOrderStatusDraft)
	if !ok || kind != TransitionKindBack {
		t.Fatalf("cancelled -> draft = (%s, %v), want back edge", kind, ok)
	}
	if _, ok := TransitionKindFor(PurchaseOrderStatusCancelled, PurchaseOrderStatusSent); ok {
		t.Fatal("cancelled -> sent should be illegal")
	}
}

func TestTerminalStatusesHaveNoForwardEdges(t *testing.T) {
	for _, status := range []PurchaseOrderStatus{PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled} {
		for _, edge := range purchaseOrderEdges[status] {
			if edge.kind == TransitionKindForward {
				t.Errorf("%s has forward edge to %s", status, edge.target)
			}
		}
	}
}

func TestEveryEdgeTargetIsKnown(t *testing.T) {
	for from, edges := range purchaseOrderEdges {
		if _, err := ParsePurchaseOrderStatus(string(from)); err != nil {
			t.Errorf("edge source %q is not a known status", from)
		}
		for _, edge := range edges {
			if _, err := ParsePurchaseOrderStatus(string(edge.target)); err != nil {
				t.Errorf("edge target %q is not a known status", edge.target)
			}
		}
	}
}

func TestBatchCreationAllowed(t *testing.T) {
	allowed := map[PurchaseOrderStatus]bool{
		PurchaseOrderStatusProductionComplete: true,
		PurchaseOrderStatusReadyToShip:        true,
		PurchaseOrderStatusPartiallyReceived:  true,
		PurchaseOrderStatusReceived:           true,
	}
	for status := range purchaseOrderStatuses {
		got := BatchCreationAllowed(PurchaseOrderStatus(status))
		if got != allowed[PurchaseOrderStatus(status)] {
			t.Errorf("BatchCreationAllowed(%s) = %v", status, got)
		}
	}
}
