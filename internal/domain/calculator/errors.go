package calculator

import (
	"errors"
	"fmt"
)

// ErrAnomaly marks a contributing row that violates a data invariant. Such
// rows are skipped; the aggregation continues.
var ErrAnomaly = errors.New("data anomaly")

// Anomaly reasons, used as metric labels.
const (
	ReasonSelfPair      = "self_pair"
	ReasonMissingID     = "missing_id"
	ReasonNegative      = "negative_value"
	ReasonRatioOverflow = "numerator_exceeds_denominator"
	ReasonDuplicate     = "duplicate_event"
	ReasonAge           = "invalid_age"
	ReasonScoreline     = "malformed_scoreline"
)

// AnomalyError describes one skipped row.
type AnomalyError struct {
	Reason string
	Key    string
}

// Anomaly builds an AnomalyError for the row identified by key.
func Anomaly(reason, key string) error {
	return &AnomalyError{Reason: reason, Key: key}
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrAnomaly, e.Reason, e.Key)
}

// Is makes errors.Is(err, ErrAnomaly) hold.
func (e *AnomalyError) Is(target error) bool {
	return target == ErrAnomaly
}

// ReasonOf extracts the anomaly reason from err, or "unknown".
func ReasonOf(err error) string {
	var a *AnomalyError
	if errors.As(err, &a) {
		return a.Reason
	}
	return "unknown"
}
