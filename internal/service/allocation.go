package service

import "github.com/shopspring/decimal"

// Allocation is one item line's share of a transaction's base and tax.
type Allocation struct {
	Base decimal.Decimal
	Tax  decimal.Decimal
}

// AllocateTax splits base and tax across item lines by each line's share of
// netTotal. A single line receives everything. Shares are rounded to two
// decimals and the rounding remainder lands on the last line, so the
// allocations always sum exactly to base and tax.
func AllocateTax(lineAmounts []decimal.Decimal, netTotal, base, tax decimal.Decimal) []Allocation {
	n := len(lineAmounts)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []Allocation{{Base: base, Tax: tax}}
	}

	denominator := netTotal
	if denominator.IsZero() {
		denominator = decimal.Sum(decimal.Zero, lineAmounts...)
	}

	allocations := make([]Allocation, n)
	allocatedBase, allocatedTax := decimal.Zero, decimal.Zero
	for i, amount := range lineAmounts {
		if i == n-1 {
			allocations[i] = Allocation{Base: base.Sub(allocatedBase), Tax: tax.Sub(allocatedTax)}
			break
		}

		var ratio decimal.Decimal
		if denominator.IsZero() {
			ratio = decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(n)))
		} else {
			ratio = amount.Div(denominator)
		}

		share := Allocation{
			Base: base.Mul(ratio).Round(2),
			Tax:  tax.Mul(ratio).Round(2),
		}
		allocations[i] = share
		allocatedBase = allocatedBase.Add(share.Base)
		allocatedTax = allocatedTax.Add(share.Tax)
	}
	return allocations
}
