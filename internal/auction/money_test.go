package auction

import (
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestExceeds(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		floor  string
		want   bool
	}{
		{name: "one cent higher", amount: "100.01", floor: "100", want: true},
		{name: "equal", amount: "100.00", floor: "100", want: false},
		{name: "lower", amount: "99.99", floor: "100", want: false},
		{name: "sub-cent excess is rounded away", amount: "100.004", floor: "100", want: false},
		{name: "half cent rounds up", amount: "100.005", floor: "100", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Exceeds(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.floor))
			check.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAndFormat(t *testing.T) {
	check.Equal(t, "120.46", NormalizeAmount(decimal.RequireFromString("120.456")).StringFixed(2))
	check.Equal(t, "$100.00", FormatPrice(decimal.NewFromInt(100)))
	check.Equal(t, "$0.50", FormatPrice(decimal.RequireFromString("0.5")))
}
