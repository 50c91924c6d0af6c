// Package nodeerrors defines the error kinds returned by tree operations.
//
// Every error produced by pkg/node is an *Error carrying a Kind. Callers
// match kinds with errors.Is against the exported sentinels:
//
//	if errors.Is(err, nodeerrors.ErrHierarchy) { ... }
package nodeerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a tree error.
type Kind string

const (
	KindNaming    Kind = "naming"    // invalid or duplicate node name
	KindType      Kind = "type"      // wrong argument type (nil node, nil predicate)
	KindCapacity  Kind = "capacity"  // descendant cap exceeded or invalid cap
	KindHierarchy Kind = "hierarchy" // attach would create a cycle or re-parent a node
	KindArgument  Kind = "argument"  // invalid or missing search criteria
	KindLimit     Kind = "limit"     // sibling navigation ran off either end
)

// Error is a tree error with its kind, the operation that raised it and the
// diagnostic path of the node involved.
type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(" error")
	if e.Op != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Op)
	}
	if e.Path != "" {
		fmt.Fprintf(&sb, " at %s", e.Path)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Is reports whether target is an *Error of the same kind. Sentinels carry
// only a kind, so errors.Is(err, ErrNaming) matches any naming error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNaming       = &Error{Kind: KindNaming}
	ErrType         = &Error{Kind: KindType}
	ErrCapacity     = &Error{Kind: KindCapacity}
	ErrHierarchy    = &Error{Kind: KindHierarchy}
	ErrArgument     = &Error{Kind: KindArgument}
	ErrLimitReached = &Error{Kind: KindLimit}
)

// New builds an *Error with a formatted message.
func New(kind Kind, op, path, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
