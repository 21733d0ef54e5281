package postgres

import "errors"

// Sentinel errors for the postgres store.
var (
	ErrConfig  = errors.New("postgres config")
	ErrConnect = errors.New("postgres connect")
	ErrQuery   = errors.New("postgres query")
)
