package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrArchiveRead ErrorType = iota
	ErrAnalyze
	ErrInvalidConfig
	ErrPackageParse
	ErrRender
	ErrSigning
	ErrFileOp
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrArchiveRead:
		return "ArchiveRead"
	case ErrAnalyze:
		return "Analyze"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrPackageParse:
		return "PackageParse"
	case ErrRender:
		return "Render"
	case ErrSigning:
		return "Signing"
	case ErrFileOp:
		return "FileOp"
	default:
		return "Unknown"
	}
}

// Error represents an error raised while extracting or patching package metadata
type Error struct {
	Type  ErrorType
	Entry string
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Entry, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err wraps an *Error of the given type
func IsType(err error, t ErrorType) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Type == t {
			return true
		}
		err = e.Err
	}
	return false
}
