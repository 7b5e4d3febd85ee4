package workflow

import (
	"github.com/shopspring/decimal"
	"github.com/supplyline/procurement_backend/models"
)

// SplitCostBasis divides a batch's cost between the split-off part and the
// remainder. The split part gets round(splitQty * unitCost, 2); the remainder
// keeps originalTotal minus that, so the two totals always sum back to the
// original to the cent. Any rounding residual therefore lands on the
// remainder.
func SplitCostBasis(unitCost, originalTotal decimal.Decimal, splitQty int) (splitTotal, remainingTotal decimal.Decimal) {
	splitTotal = models.RoundMoney(unitCost.Mul(decimal.NewFromInt(int64(splitQty))))
	remainingTotal = originalTotal.Sub(splitTotal)
	return splitTotal, remainingTotal
}

// WeightedAverageUnitCost computes the merged batch's per-unit cost from the
// summed source totals, rounded half-up to currency precision.
func WeightedAverageUnitCost(totalCost decimal.Decimal, totalQty int) decimal.Decimal {
	if totalQty <= 0 {
		return decimal.Zero
	}
	return totalCost.DivRound(decimal.NewFromInt(int64(totalQty)), 2)
}
