// Package types contains the row shapes shared by calculators, the ranker
// and the HTTP layer.
package types

import (
	"encoding/json"
	"fmt"
)

// Kind names a calculator family. Each kind has exactly one Detail type.
type Kind string

// Calculator kinds.
const (
	KindStreak     Kind = "streak"
	KindNth        Kind = "nth"
	KindCumulative Kind = "cumulative"
	KindTimespan   Kind = "timespan"
	KindHeadToHead Kind = "head-to-head"
	KindPattern    Kind = "pattern"
	KindRatio      Kind = "ratio"
)

// Detail is the calculator-specific part of a row.
type Detail interface {
	Kind() Kind
}

// Row is one finalized calculator output before ranking.
type Row struct {
	// Key identifies the row: an entity id, or a pair key for head-to-head.
	Key string `json:"key"`
	// Entities lists the ids to resolve, player first.
	Entities []string `json:"entities"`
	// Value is the primary ranking value.
	Value float64 `json:"value"`
	// Tiebreak is the first tie-break value of the metric's order.
	Tiebreak float64 `json:"tiebreak,omitempty"`
	Detail   Detail  `json:"detail"`
}

// UnmarshalRow decodes a row whose detail has the given kind.
func UnmarshalRow(kind Kind, data []byte) (Row, error) {
	var wire struct {
		Key      string          `json:"key"`
		Entities []string        `json:"entities"`
		Value    float64         `json:"value"`
		Tiebreak float64         `json:"tiebreak"`
		Detail   json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Row{}, err
	}
	d, err := DecodeDetail(kind, wire.Detail)
	if err != nil {
		return Row{}, err
	}
	return Row{Key: wire.Key, Entities: wire.Entities, Value: wire.Value, Tiebreak: wire.Tiebreak, Detail: d}, nil
}

// UnmarshalJSON lets a row carry any detail without knowing its kind up
// front; the kind is read from the detail's "kind" field.
func (r *Row) UnmarshalJSON(data []byte) error {
	var head struct {
		Detail struct {
			Kind Kind `json:"kind"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	row, err := UnmarshalRow(head.Detail.Kind, data)
	if err != nil {
		return err
	}
	*r = row
	return nil
}

// DecodeDetail decodes raw into the Detail type of kind.
func DecodeDetail(kind Kind, raw json.RawMessage) (Detail, error) {
	var d Detail
	switch kind {
	case KindStreak:
		d = &StreakDetail{}
	case KindNth:
		d = &NthDetail{}
	case KindCumulative:
		d = &CumulativeDetail{}
	case KindTimespan:
		d = &TimespanDetail{}
	case KindHeadToHead:
		d = &HeadToHeadDetail{}
	case KindPattern:
		d = &PatternDetail{}
	case KindRatio:
		d = &RatioDetail{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Player is the resolved identity attached to an output row.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code,omitempty"`
}

// RecordRow is one ranked entry of a records response.
type RecordRow struct {
	Rank     int     `json:"rank"`
	Player   Player  `json:"player"`
	Opponent *Player `json:"opponent,omitempty"`
	Value    float64 `json:"value"`
	Detail   Detail  `json:"detail"`
}
