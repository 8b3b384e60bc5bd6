// Package errors provides structured, categorized errors for the routekit
// toolchain (build, config, CLI). Engine-level error classification lives in
// pkg/routedata; this package is for tooling diagnostics shown to a
// developer at a terminal.
package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryManifest Category = "manifest"
	CategoryBuild    Category = "build"
	CategoryConfig   Category = "config"
	CategoryDev      Category = "dev"
	CategoryCLI      Category = "cli"
)

// Error is a structured toolchain error with an optional fix suggestion.
type Error struct {
	// Category is the error type (manifest, build, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Format renders the error for terminal output, including detail and
// suggestion blocks when present.
func Format(err error) string {
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(e.Error())
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "\n  caused by: %v", e.Wrapped)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, "\n\n  %s", e.Detail)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n\n  hint: %s", e.Suggestion)
	}
	return b.String()
}
