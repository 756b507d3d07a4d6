// Package task holds the task entity, its status enumeration and the
// repository that persists it.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Status is the two-valued state of a task.
type Status string

const (
	StatusPending Status = "PENDENTE"
	StatusDone    Status = "CONCLUIDA"
)

// Path tokens accepted by the status filter endpoint.
const (
	TokenPending = "pendente"
	TokenDone    = "concluida"
)

// Valid reports whether s is one of the two known values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Toggle returns the other status value.
func (s Status) Toggle() Status {
	if s == StatusDone {
		return StatusPending
	}
	return StatusDone
}

// StatusFromBool maps the boolean representation used by update requests.
func StatusFromBool(done bool) Status {
	if done {
		return StatusDone
	}
	return StatusPending
}

// ParseStatus parses a status value case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// ParseStatusToken parses the lower-case filter token ("pendente" or "concluida").
func ParseStatusToken(token string) (Status, error) {
	switch token {
	case TokenPending:
		return StatusPending, nil
	case TokenDone:
		return StatusDone, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, token)
	}
}

// Task is a to-do item.
type Task struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	Title       string    `gorm:"column:titulo;size:255;not null" json:"titulo"`
	Description *string   `gorm:"column:descricao;size:1000" json:"descricao"`
	Status      Status    `gorm:"size:10;not null;default:PENDENTE;index" json:"status"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tarefas"
}
