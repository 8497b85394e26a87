package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("already exists")
	ErrSelfReference       = errors.New("cannot subscribe to yourself")
	ErrForbidden           = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials  = errors.New("unable to log in with provided credentials")
	ErrDuplicateTag        = errors.New("tags must not repeat")
	ErrDuplicateIngredient = errors.New("ingredients must not repeat")
)

// ValidationError carries per-field messages. Cause, when set, is one of
// the sentinel errors above so callers can match it with errors.Is.
type ValidationError struct {
	Fields map[string][]string
	Cause  error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) addCause(field string, cause error) {
	e.Add(field, cause.Error())
	if e.Cause == nil {
		e.Cause = cause
	}
}

// OrNil returns e when at least one field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RelationError reports a rejected relation add or remove. It matches the
// underlying sentinel through errors.Is.
type RelationError struct {
	Message string
	Err     error
}

func (e *RelationError) Error() string {
	return e.Message
}

func (e *RelationError) Unwrap() error {
	return e.Err
}
