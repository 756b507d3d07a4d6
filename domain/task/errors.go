package task

import "errors"

// Sentinel errors for task persistence and parsing.
var (
	// ErrNotFound is returned when no task exists with the requested id.
	ErrNotFound = errors.New("tarefa não encontrada")

	// ErrInvalidStatus is returned for a status value outside the enumeration.
	ErrInvalidStatus = errors.New("status inválido")
)
