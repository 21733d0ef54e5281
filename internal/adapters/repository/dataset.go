package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/snapshot"
)

// Dataset is the JSON document the memory store loads.
type Dataset struct {
	Players   []model.Entity       `json:"players"`
	Matches   []model.MatchEvent   `json:"matches"`
	Rankings  []model.RankingEvent `json:"rankings"`
	Snapshots []*snapshot.Snapshot `json:"snapshots,omitempty"`
}

// ReadDataset decodes a dataset from r.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDataset, err)
	}
	for _, s := range ds.Snapshots {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadDataset, err)
		}
	}
	return &ds, nil
}

// LoadDataset reads a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDataset, err)
	}
	defer func() { _ = f.Close() }()
	return ReadDataset(f)
}

// WriteDataset encodes ds to w as indented JSON.
func WriteDataset(w io.Writer, ds *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}
