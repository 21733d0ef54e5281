package types

import "encoding/json"

// StreakDetail describes the best run of consecutive periods.
type StreakDetail struct {
	Length int `json:"length"`
	// Start and End are period labels: a year, an ISO date.
	Start string `json:"start"`
	End   string `json:"end"`
	// Weight sums the per-period weights over the run.
	Weight float64 `json:"weight,omitempty"`
}

// NthDetail describes the Nth occurrence of an event.
type NthDetail struct {
	N     int     `json:"n"`
	Value float64 `json:"value"`
	Date  string  `json:"date,omitempty"`
	Event string  `json:"event,omitempty"`
}

// CumulativeDetail is a running total read at a threshold.
type CumulativeDetail struct {
	Threshold float64 `json:"threshold"`
	Count     float64 `json:"count"`
}

// TimespanDetail is the distance between the first and last occurrence.
type TimespanDetail struct {
	First string `json:"first"`
	Last  string `json:"last"`
	// Unit is "days" or "years".
	Unit string `json:"unit"`
	Span int64  `json:"span"`
	// Calendar-exact distance; zero for year granularity.
	Years  int `json:"years,omitempty"`
	Months int `json:"months,omitempty"`
	Days   int `json:"days,omitempty"`
}

// HeadToHeadDetail counts the meetings of an unordered pair.
type HeadToHeadDetail struct {
	Player1     string `json:"player1"`
	Player2     string `json:"player2"`
	WinsPlayer1 int    `json:"wins_player1"`
	WinsPlayer2 int    `json:"wins_player2"`
	Total       int    `json:"total"`
}

// PatternDetail counts matches exhibiting a scoreline pattern.
type PatternDetail struct {
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// RatioDetail is a summed numerator over a summed denominator.
type RatioDetail struct {
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
	Percentage  float64 `json:"percentage"`
}

// Kind implements Detail.
func (*StreakDetail) Kind() Kind { return KindStreak }

// Kind implements Detail.
func (*NthDetail) Kind() Kind { return KindNth }

// Kind implements Detail.
func (*CumulativeDetail) Kind() Kind { return KindCumulative }

// Kind implements Detail.
func (*TimespanDetail) Kind() Kind { return KindTimespan }

// Kind implements Detail.
func (*HeadToHeadDetail) Kind() Kind { return KindHeadToHead }

// Kind implements Detail.
func (*PatternDetail) Kind() Kind { return KindPattern }

// Kind implements Detail.
func (*RatioDetail) Kind() Kind { return KindRatio }

func marshalWithKind(kind Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(kind)
	if len(body) == 2 {
		return append([]byte(`{"kind":`), append(tag, '}')...), nil
	}
	out := append([]byte(`{"kind":`), tag...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

// The aliases below strip the MarshalJSON method to avoid recursion.

// MarshalJSON tags the detail with its kind.
func (d *StreakDetail) MarshalJSON() ([]byte, error) {
	type plain StreakDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}

// MarshalJSON tags the detail with its kind.
func (d *NthDetail) MarshalJSON() ([]byte, error) {
	type plain NthDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}

// MarshalJSON tags the detail with its kind.
func (d *CumulativeDetail) MarshalJSON() ([]byte, error) {
	type plain CumulativeDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}

// MarshalJSON tags the detail with its kind.
func (d *TimespanDetail) MarshalJSON() ([]byte, error) {
	type plain TimespanDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}

// MarshalJSON tags the detail with its kind.
func (d *HeadToHeadDetail) MarshalJSON() ([]byte, error) {
	type plain HeadToHeadDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}

// MarshalJSON tags the detail with its kind.
func (d *PatternDetail) MarshalJSON() ([]byte, error) {
	type plain PatternDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}

// MarshalJSON tags the detail with its kind.
func (d *RatioDetail) MarshalJSON() ([]byte, error) {
	type plain RatioDetail
	return marshalWithKind(d.Kind(), (*plain)(d))
}
