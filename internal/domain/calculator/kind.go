// Package calculator holds the typed fold states behind every record metric.
//
// Each calculator accepts contributions one at a time, in a single
// deterministic pass, and finalizes into types.Row values. Calculators are
// created per request and are not safe for concurrent use.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/okian/recordbook/internal/domain/types"
)

// Kind selects one calculator family.
type Kind = types.Kind

// Calculator kinds.
const (
	KindStreak     = types.KindStreak
	KindNth        = types.KindNth
	KindCumulative = types.KindCumulative
	KindTimespan   = types.KindTimespan
	KindHeadToHead = types.KindHeadToHead
	KindPattern    = types.KindPattern
	KindRatio      = types.KindRatio
)

// DefaultPrecision is the number of decimals kept by percentage outputs.
const DefaultPrecision = 3

var hundred = decimal.NewFromInt(100)

// Percent returns 100*num/den rounded half away from zero to precision
// decimals. A zero denominator yields zero.
func Percent(num, den float64, precision int32) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromFloat(num).
		Mul(hundred).
		Div(decimal.NewFromFloat(den)).
		Round(precision).
		InexactFloat64()
}

// Round rounds v half away from zero to precision decimals.
func Round(v float64, precision int32) float64 {
	return decimal.NewFromFloat(v).Round(precision).InexactFloat64()
}
