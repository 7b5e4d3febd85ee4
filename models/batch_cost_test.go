package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2.005", "2.01"},
		{"2.004", "2"},
		{"2.595", "2.6"},
		{"-2.005", "-2.01"},
		{"1300", "1300"},
	}
	for _, tc := range cases {
		in, _ := decimal.NewFromString(tc.in)
		want, _ := decimal.NewFromString(tc.want)
		if got := RoundMoney(in); !got.Equal(want) {
			t.Errorf("RoundMoney(%s) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestRecomputeTotalCost(t *testing.T) {
	b := Batch{Quantity: 1000, UnitCost: decimal.RequireFromString("2.50")}
	b.RecomputeTotalCost()
	if !b.TotalCost.Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("TotalCost = %s, want 2500.00", b.TotalCost)
	}

	b.Quantity = 0
	b.RecomputeTotalCost()
	if !b.TotalCost.IsZero() {
		t.Fatalf("TotalCost = %s, want 0", b.TotalCost)
	}
}
