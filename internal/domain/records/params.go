package records

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/recordbook/internal/domain/types"
)

// Parameter names.
const (
	ParamN    = "n"
	ParamAge  = "age"
	ParamRank = "rank"
	ParamMin  = "min"
)

// ParamSpec declares one metric parameter.
type ParamSpec struct {
	Name     string  `json:"name"`
	Required bool    `json:"required"`
	Default  float64 `json:"default,omitempty"`
	Integer  bool    `json:"integer"`
	// Floor is the smallest accepted value; Strict excludes it.
	Floor  float64 `json:"floor"`
	Strict bool    `json:"strict,omitempty"`
	Doc    string  `json:"doc"`
}

// Params are the bound metric parameters of one request.
type Params struct {
	N    int
	Age  float64
	Rank int
	Min  int
	// Precision is the decimal precision of percentage outputs.
	Precision int32
}

func (ps ParamSpec) check(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if ps.Integer && v != math.Trunc(v) {
		return false
	}
	if ps.Strict {
		return v > ps.Floor
	}
	return v >= ps.Floor
}

// Bind validates and binds the metric's declared parameters from q.
// Undeclared parameters are ignored.
func (m *Metric) Bind(q url.Values, precision int32) (Params, error) {
	p := Params{Precision: precision}
	for _, spec := range m.Params {
		raw := strings.TrimSpace(q.Get(spec.Name))
		v := spec.Default
		switch {
		case raw == "" && spec.Required:
			return Params{}, fmt.Errorf("%w: %s is required", ErrInvalidParameter, spec.Name)
		case raw != "":
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || !spec.check(parsed) {
				return Params{}, fmt.Errorf("%w: %s=%q", ErrInvalidParameter, spec.Name, raw)
			}
			v = parsed
		}
		switch spec.Name {
		case ParamN:
			p.N = int(v)
		case ParamAge:
			p.Age = v
		case ParamRank:
			p.Rank = int(v)
		case ParamMin:
			p.Min = int(v)
		}
	}
	return p, nil
}

// Canonical renders the parameters that change a metric's rows, in a
// stable form used as the snapshot key. The minimum sample is applied
// after extraction and is not part of it.
func (m *Metric) Canonical(p Params) string {
	v := url.Values{}
	for _, spec := range m.Params {
		switch spec.Name {
		case ParamN:
			v.Set(ParamN, strconv.Itoa(p.N))
		case ParamAge:
			v.Set(ParamAge, strconv.FormatFloat(p.Age, 'f', -1, 64))
		case ParamRank:
			v.Set(ParamRank, strconv.Itoa(p.Rank))
		}
	}
	if m.Kind == types.KindPattern || m.Kind == types.KindRatio {
		v.Set("precision", strconv.Itoa(int(p.Precision)))
	}
	return v.Encode()
}
