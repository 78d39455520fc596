package state

import (
	"errors"
	"fmt"
)

// ApplyError represents a rejected fact application or a failed lookup.
//
// Apply is all-or-nothing per fact: an ApplyError means no store was
// modified. Query-side lookups reuse the same type for typed "not found"
// results (NO_VERSION_AT_TIME, UNKNOWN_ENTITY).
type ApplyError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the sequence number of the offending fact, if known.
	Seq int64

	// EntityID identifies the affected entity, if any.
	EntityID string

	// RelationshipID identifies the affected relationship, if any.
	RelationshipID string
}

// ErrorCode categorizes apply and lookup errors.
type ErrorCode string

const (
	// ErrCodeIntegrity indicates a malformed or schema-violating fact,
	// including sequence gaps and duplicates detected during replay.
	ErrCodeIntegrity ErrorCode = "INTEGRITY"

	// ErrCodeDuplicateEntity indicates an EntityCreated fact for an id
	// that already exists.
	ErrCodeDuplicateEntity ErrorCode = "DUPLICATE_ENTITY"

	// ErrCodeUnknownEntity indicates a fact referencing an absent entity id.
	ErrCodeUnknownEntity ErrorCode = "UNKNOWN_ENTITY"

	// ErrCodeUnknownRelationship indicates a fact referencing an absent
	// relationship id.
	ErrCodeUnknownRelationship ErrorCode = "UNKNOWN_RELATIONSHIP"

	// ErrCodeNonMonotonicTime indicates a version whose validity start
	// precedes the entity's latest version.
	ErrCodeNonMonotonicTime ErrorCode = "NON_MONOTONIC_TIME"

	// ErrCodeAlreadyClosed indicates a RelationshipEnded fact for a
	// relationship whose validity interval is already closed.
	ErrCodeAlreadyClosed ErrorCode = "ALREADY_CLOSED"

	// ErrCodeNoVersionAtTime indicates an as-of lookup earlier than the
	// entity's first version.
	ErrCodeNoVersionAtTime ErrorCode = "NO_VERSION_AT_TIME"
)

// Error implements the error interface.
func (e *ApplyError) Error() string {
	switch {
	case e.EntityID != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.EntityID)
	case e.RelationshipID != "":
		return fmt.Sprintf("%s: %s (relationship=%s)", e.Code, e.Message, e.RelationshipID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// CodeOf extracts the error code from err, or "" if err is not an ApplyError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err is an ApplyError with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func integrityErr(seq int64, format string, args ...any) *ApplyError {
	return &ApplyError{Code: ErrCodeIntegrity, Seq: seq, Message: fmt.Sprintf(format, args...)}
}

func unknownEntityErr(seq int64, entityID string) *ApplyError {
	return &ApplyError{
		Code:     ErrCodeUnknownEntity,
		Seq:      seq,
		EntityID: entityID,
		Message:  "entity id is not registered",
	}
}

func unknownRelationshipErr(seq int64, relID string) *ApplyError {
	return &ApplyError{
		Code:           ErrCodeUnknownRelationship,
		Seq:            seq,
		RelationshipID: relID,
		Message:        "relationship id is not registered",
	}
}
