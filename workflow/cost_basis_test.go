package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitCostBasis_ConservesTotal(t *testing.T) {
	// 1000 units at 2.50, split off 400.
	splitTotal, remainingTotal := SplitCostBasis(d("2.50"), d("2500.00"), 400)
	if !splitTotal.Equal(d("1000.00")) {
		t.Fatalf("splitTotal = %s, want 1000.00", splitTotal)
	}
	if !remainingTotal.Equal(d("1500.00")) {
		t.Fatalf("remainingTotal = %s, want 1500.00", remainingTotal)
	}
	if !splitTotal.Add(remainingTotal).Equal(d("2500.00")) {
		t.Fatalf("totals do not sum back: %s + %s", splitTotal, remainingTotal)
	}
}

func TestSplitCostBasis_ResidualCentStaysOnRemainder(t *testing.T) {
	// 3 units at 0.3333 each, total booked 1.00. Splitting 1 unit gives the
	// child round(0.3333) = 0.33; the remainder keeps 0.67 including the
	// rounding residual.
	splitTotal, remainingTotal := SplitCostBasis(d("0.3333"), d("1.00"), 1)
	if !splitTotal.Equal(d("0.33")) {
		t.Fatalf("splitTotal = %s, want 0.33", splitTotal)
	}
	if !remainingTotal.Equal(d("0.67")) {
		t.Fatalf("remainingTotal = %s, want 0.67", remainingTotal)
	}
	if !splitTotal.Add(remainingTotal).Equal(d("1.00")) {
		t.Fatalf("totals do not sum back: %s + %s", splitTotal, remainingTotal)
	}
}

func TestWeightedAverageUnitCost(t *testing.T) {
	// 300 units at 2.00 (600.00) merged with 200 units at 3.50 (700.00):
	// 1300.00 / 500 = 2.60.
	got := WeightedAverageUnitCost(d("1300.00"), 500)
	if !got.Equal(d("2.60")) {
		t.Fatalf("unit cost = %s, want 2.60", got)
	}
}

func TestWeightedAverageUnitCost_RoundsHalfUp(t *testing.T) {
	// 100.00 / 3 = 33.333... per 3 units -> 0.005 boundary check:
	// 10.00 / 3 units = 3.3333 -> 3.33; 0.10 / 8 = 0.0125 -> 0.01;
	// 0.15 / 2 = 0.075 -> 0.08 (half-up).
	cases := []struct {
		total string
		qty   int
		want  string
	}{
		{"10.00", 3, "3.33"},
		{"0.10", 8, "0.01"},
		{"0.15", 2, "0.08"},
	}
	for _, tc := range cases {
		if got := WeightedAverageUnitCost(d(tc.total), tc.qty); !got.Equal(d(tc.want)) {
			t.Errorf("WeightedAverageUnitCost(%s, %d) = %s, want %s", tc.total, tc.qty, got, tc.want)
		}
	}
}

func TestWeightedAverageUnitCost_ZeroQuantity(t *testing.T) {
	if got := WeightedAverageUnitCost(d("100.00"), 0); !got.IsZero() {
		t.Fatalf("unit cost = %s, want 0", got)
	}
}
