package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrTemplateNotFound = errors.New("certificate template not found")
	ErrTemplateInactive = errors.New("certificate template is inactive")
)

// ValidationError 字段级校验错误，field -> message
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
