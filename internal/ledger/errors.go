package ledger

import (
	"errors"
	"fmt"
)

// ErrEmptyInput indicates that no valid record survived parsing.
var ErrEmptyInput = errors.New("ledger: no valid records")

// MalformedRecordError describes the first structural check a line failed.
type MalformedRecordError struct {
	Field  string
	Value  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %s %q: %s", e.Field, e.Value, e.Reason)
}

// DuplicateKeyError is returned when two valid records share an identifier.
type DuplicateKeyError struct {
	ID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate transaction id %s", e.ID)
}
