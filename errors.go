package overlay

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateKey indicates Add targeted a key already present in the store.
	ErrDuplicateKey = errors.New("overlay: key already exists")
	// ErrKeyNotFound indicates a view write targeted a key missing from the store.
	ErrKeyNotFound = errors.New("overlay: key not found")
	// ErrNilDestination indicates a bulk copy received a nil destination.
	ErrNilDestination = errors.New("overlay: destination must not be nil")
	// ErrOutOfRange indicates a bulk copy offset is invalid or the destination
	// cannot hold every entry.
	ErrOutOfRange = errors.New("overlay: index out of range")
	// ErrUnsupportedVersion indicates a document was written by an unknown
	// codec version.
	ErrUnsupportedVersion = errors.New("overlay: unsupported document version")
	// ErrViewIDRequired indicates a document carries no view identity.
	ErrViewIDRequired = errors.New("overlay: document view id is required")
	// ErrViewIDInUse indicates a sibling restore reused the root's identity.
	ErrViewIDInUse = errors.New("overlay: view id already belongs to the root view")
	// ErrBaseNotSerialized indicates a root restore was attempted from a
	// document that does not carry the store contents.
	ErrBaseNotSerialized = errors.New("overlay: document does not carry the base store")
)

// KeyError captures the operation and key alongside the originating error.
type KeyError struct {
	Op  string
	Key any
	Err error
}

func (e *KeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("overlay: %s %v: %s", e.Op, e.Key, strings.TrimPrefix(errorText(e.Err), "overlay: "))
}

func (e *KeyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func keyError(op string, key any, err error) error {
	return &KeyError{Op: op, Key: key, Err: err}
}

// CombineError captures expression combiner metadata alongside the originating error.
type CombineError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *CombineError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("overlay: %s combiner %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *CombineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapCombineError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var combineErr *CombineError
	if errors.As(err, &combineErr) {
		if combineErr.Engine == "" {
			combineErr.Engine = engine
		}
		if combineErr.Expr == "" {
			combineErr.Expr = expr
		}
		return combineErr
	}

	return &CombineError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}

func errorText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
