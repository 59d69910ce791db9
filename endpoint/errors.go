package endpoint

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicate matches every *DuplicateError.
	ErrDuplicate = errors.New("endpoint: duplicate id")
	// ErrInvalidDescriptor indicates an empty or malformed id or default path.
	ErrInvalidDescriptor = errors.New("endpoint: invalid descriptor")
	// ErrRouteConflict indicates an exposed endpoint whose route is already taken by an
	// earlier registration.
	ErrRouteConflict = errors.New("endpoint: route conflict")
)

// DuplicateError reports a registration whose id collides (case-insensitively) with an
// existing one.
type DuplicateError struct {
	ID       string // id being registered
	Existing string // id already registered
}

func (e *DuplicateError) Error() string {
	if e.ID == e.Existing {
		return "endpoint: duplicate id " + e.ID
	}
	return "endpoint: duplicate id " + e.ID + " (collides with " + e.Existing + ")"
}

// Is makes errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// ResolveError lists the endpoints whose resolution reported problems.
//
// Every failing endpoint still has fallback settings in its Resolved entry.
type ResolveError struct {
	Failures map[string]error // id -> error
	// Policy is set when the exposure lists were malformed and defaults were used.
	Policy error
	order  []string
}

func (e *ResolveError) add(id string, err error) {
	if e.Failures == nil {
		e.Failures = make(map[string]error)
	}
	if _, ok := e.Failures[id]; !ok {
		e.order = append(e.order, id)
		e.Failures[id] = err
		return
	}
	e.Failures[id] = errors.Join(e.Failures[id], err)
}

// IDs returns the failing ids in registration order.
func (e *ResolveError) IDs() []string { return append([]string(nil), e.order...) }

func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString("endpoint: resolution reported problems")
	if len(e.order) > 0 {
		b.WriteString(" for ")
		b.WriteString(strings.Join(e.order, ", "))
	}
	if e.Policy != nil {
		b.WriteString("\n  exposure: ")
		b.WriteString(strings.ReplaceAll(e.Policy.Error(), "\n", "; "))
	}
	for _, id := range e.order {
		b.WriteString("\n  ")
		b.WriteString(id)
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(e.Failures[id].Error(), "\n", "; "))
	}
	return b.String()
}

// Unwrap exposes the per-endpoint errors to errors.Is / errors.As.
func (e *ResolveError) Unwrap() []error {
	out := make([]error, 0, len(e.order)+1)
	if e.Policy != nil {
		out = append(out, e.Policy)
	}
	for _, id := range e.order {
		out = append(out, e.Failures[id])
	}
	return out
}
