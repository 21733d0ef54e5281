package service

import (
	"errors"

	"github.com/okian/recordbook/internal/domain/records"
)

// Sentinel errors returned by Records. The HTTP layer maps them to status codes.
var (
	ErrInvalidParameter        = records.ErrInvalidParameter
	ErrUnknownMetric           = records.ErrUnknownMetric
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)
