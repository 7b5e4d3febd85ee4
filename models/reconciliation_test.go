package models

import "testing"

func TestReconcile_Discrepancy(t *testing.T) {
	report := Reconcile("batch-1", 500, 485)
	if report.Status != ReconciliationStatusDiscrepancy {
		t.Fatalf("status = %s, want discrepancy", report.Status)
	}
	if report.Discrepancy != -15 {
		t.Fatalf("discrepancy = %d, want -15", report.Discrepancy)
	}
	if report.ExpectedQuantity != 500 || report.ReportedQuantity != 485 {
		t.Fatalf("quantities not preserved: %d/%d", report.ExpectedQuantity, report.ReportedQuantity)
	}
}

func TestReconcile_Overage(t *testing.T) {
	report := Reconcile("batch-1", 500, 512)
	if report.Status != ReconciliationStatusDiscrepancy {
		t.Fatalf("status = %s, want discrepancy", report.Status)
	}
	if report.Discrepancy != 12 {
		t.Fatalf("discrepancy = %d, want 12", report.Discrepancy)
	}
}

func TestReconcile_Matched(t *testing.T) {
	report := Reconcile("batch-1", 500, 500)
	if report.Status != ReconciliationStatusMatched {
		t.Fatalf("status = %s, want matched", report.Status)
	}
	if report.Discrepancy != 0 {
		t.Fatalf("discrepancy = %d, want 0", report.Discrepancy)
	}
}
