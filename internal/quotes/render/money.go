package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney rounds to two decimals and groups thousands with commas, e.g. 1,234.50.
func FormatMoney(value decimal.Decimal) string {
	fixed := value.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if sign == "-" && strings.Trim(intPart+fracPart, "0") == "" {
		sign = ""
	}
	return sign + b.String() + "." + fracPart
}
