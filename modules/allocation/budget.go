package allocation

import (
	"math/big"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/units"
	"gauge-automation/lib/utils"
)

// SplitBudget allocates total in proportion to shares. See Reconcile for
// how the rounding remainder is handled.
func SplitBudget(total *big.Int, shares []float64) ([]*big.Int, error) {
	for i, s := range shares {
		if s < 0 {
			return nil, errors.InvalidInputError.Clone().
				SetData("index", i).
				SetData("share", s)
		}
	}
	raw := utils.Map(shares, func(s float64) *big.Int {
		return units.MulShare(total, s)
	})
	return Reconcile(total, raw)
}

// SplitBudgetFractions allocates total in proportion to exact fractions
// numerator/denominator.
func SplitBudgetFractions(total *big.Int, numerators []*big.Int, denominator *big.Int) ([]*big.Int, error) {
	if denominator.Sign() <= 0 {
		return nil, errors.InvalidInputError.Clone().
			SetData("denominator", denominator.String())
	}
	raw := utils.Map(numerators, func(n *big.Int) *big.Int {
		v := new(big.Int).Mul(total, n)
		return v.Div(v, denominator)
	})
	return Reconcile(total, raw)
}

// Reconcile makes raw sum to exactly total. The signed difference is applied
// to the largest allocation, the first one on ties. raw is not modified.
func Reconcile(total *big.Int, raw []*big.Int) ([]*big.Int, error) {
	out := utils.Map(raw, func(v *big.Int) *big.Int {
		return new(big.Int).Set(v)
	})

	sum := new(big.Int)
	for _, v := range out {
		sum.Add(sum, v)
	}
	diff := new(big.Int).Sub(total, sum)
	if diff.Sign() == 0 {
		return out, nil
	}
	if len(out) == 0 {
		return nil, errors.BudgetMismatchError.Clone().
			SetData("total", total.String()).
			SetData("allocated", "0")
	}

	largest := 0
	for i, v := range out {
		if v.Cmp(out[largest]) > 0 {
			largest = i
		}
	}
	out[largest].Add(out[largest], diff)

	if out[largest].Sign() < 0 {
		return nil, errors.BudgetMismatchError.Clone().
			SetData("total", total.String()).
			SetData("allocated", sum.String()).
			SetData("diff", diff.String())
	}
	return out, nil
}
