package service

import "errors"

var (
	// ErrNotFound ningún título del catálogo coincide con la consulta.
	ErrNotFound = errors.New("no matching title")
	// ErrIndexMissingEntry el id existe en el catálogo pero no en el índice:
	// el artefacto es inconsistente.
	ErrIndexMissingEntry = errors.New("index has no entry for item")
	ErrInvalidCount      = errors.New("count must be >= 1")

	ErrRebuildInProgress  = errors.New("index rebuild already in progress")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrHistoryDisabled    = errors.New("query history disabled (no mongo)")
)
