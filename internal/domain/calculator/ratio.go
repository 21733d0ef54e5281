package calculator

import "github.com/okian/recordbook/internal/domain/types"

type fraction struct {
	num, den float64
}

// Ratio sums a numerator and a denominator per entity.
type Ratio struct {
	min       float64
	precision int32
	sums      map[string]*fraction
}

// NewRatio creates a folder. Entities whose denominator stays below minDenominator are
// dropped from finalized rows; a zero denominator never qualifies.
func NewRatio(minDenominator float64, precision int32) *Ratio {
	return &Ratio{min: minDenominator, precision: precision, sums: make(map[string]*fraction)}
}

// Add contributes num/den to entity. Negative parts and a numerator above
// the denominator are anomalies and leave the entity untouched.
func (r *Ratio) Add(entity string, num, den float64) error {
	if num < 0 || den < 0 {
		return Anomaly(ReasonNegative, entity)
	}
	if num > den {
		return Anomaly(ReasonRatioOverflow, entity)
	}
	f, ok := r.sums[entity]
	if !ok {
		f = &fraction{}
		r.sums[entity] = f
	}
	f.num += num
	f.den += den
	return nil
}

// Merge folds o into r.
func (r *Ratio) Merge(o *Ratio) {
	for e, f := range o.sums {
		mine, ok := r.sums[e]
		if !ok {
			mine = &fraction{}
			r.sums[e] = mine
		}
		mine.num += f.num
		mine.den += f.den
	}
}

// Sums returns the numerator and denominator of entity.
func (r *Ratio) Sums(entity string) (num, den float64) {
	if f, ok := r.sums[entity]; ok {
		return f.num, f.den
	}
	return 0, 0
}

// Rows finalizes every qualifying entity. A merged total whose numerator
// still exceeds the denominator is reported as an anomaly instead.
func (r *Ratio) Rows() ([]types.Row, []error) {
	var (
		rows      []types.Row
		anomalies []error
	)
	for _, e := range sortedKeys(r.sums) {
		f := r.sums[e]
		if f.den == 0 || f.den < r.min {
			continue
		}
		if f.num > f.den {
			anomalies = append(anomalies, Anomaly(ReasonRatioOverflow, e))
			continue
		}
		pct := Percent(f.num, f.den, r.precision)
		rows = append(rows, types.Row{
			Key:      e,
			Entities: []string{e},
			Value:    pct,
			Tiebreak: f.den,
			Detail:   &types.RatioDetail{Numerator: f.num, Denominator: f.den, Percentage: pct},
		})
	}
	return rows, anomalies
}
