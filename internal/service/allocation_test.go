package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateTax(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		netTotal string
		base     string
		tax      string
		want     [][2]string
	}{
		{
			name:     "proportional",
			lines:    []string{"700000", "300000"},
			netTotal: "1000000",
			base:     "1000000",
			tax:      "110000",
			want:     [][2]string{{"700000", "77000"}, {"300000", "33000"}},
		},
		{
			name:     "single line takes everything",
			lines:    []string{"500"},
			netTotal: "999",
			base:     "1000",
			tax:      "110",
			want:     [][2]string{{"1000", "110"}},
		},
		{
			name:     "remainder lands on last line",
			lines:    []string{"1", "1", "1"},
			netTotal: "3",
			base:     "100",
			tax:      "11",
			want:     [][2]string{{"33.33", "3.67"}, {"33.33", "3.67"}, {"33.34", "3.66"}},
		},
		{
			name:     "zero totals split evenly",
			lines:    []string{"0", "0"},
			netTotal: "0",
			base:     "10",
			tax:      "1",
			want:     [][2]string{{"5", "0.5"}, {"5", "0.5"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := make([]decimal.Decimal, len(tt.lines))
			for i, l := range tt.lines {
				lines[i] = dec(l)
			}

			got := AllocateTax(lines, dec(tt.netTotal), dec(tt.base), dec(tt.tax))
			require.Len(t, got, len(tt.want))

			sumBase, sumTax := decimal.Zero, decimal.Zero
			for i, w := range tt.want {
				assert.True(t, dec(w[0]).Equal(got[i].Base), "base[%d] = %s", i, got[i].Base)
				assert.True(t, dec(w[1]).Equal(got[i].Tax), "tax[%d] = %s", i, got[i].Tax)
				sumBase = sumBase.Add(got[i].Base)
				sumTax = sumTax.Add(got[i].Tax)
			}
			assert.True(t, dec(tt.base).Equal(sumBase))
			assert.True(t, dec(tt.tax).Equal(sumTax))
		})
	}

	assert.Nil(t, AllocateTax(nil, decimal.Zero, decimal.Zero, decimal.Zero))
}
