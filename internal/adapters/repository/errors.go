package repository

import (
	"errors"

	"github.com/okian/recordbook/internal/domain/snapshot"
)

// Sentinel errors for collaborators.
var (
	ErrSnapshotNotFound = snapshot.ErrNotFound
	ErrLoadDataset      = errors.New("load dataset")
)
