package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/sprat/compiler"
)

// ---------------------------------------------------------------------------
// Unwind: the single failure channel
// ---------------------------------------------------------------------------

// ErrorKind classifies exceptions.
type ErrorKind int

const (
	// SimpleError carries a fixed diagnostic message.
	SimpleError ErrorKind = iota
	// TypeError carries the expected table and the offending value.
	TypeError
	// EndOfInput means the source ended before a construct was complete.
	EndOfInput
)

func (k ErrorKind) String() string {
	switch k {
	case TypeError:
		return "type error"
	case EndOfInput:
		return "end of input"
	}
	return "error"
}

// Error is the payload of an exception.
type Error struct {
	Kind     ErrorKind
	Message  string
	Expected *VTable
	Actual   Object
}

// Describe renders the one-line problem description.
func (e Error) Describe() string {
	if e.Kind == TypeError {
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("Type error: expected %s, got %s", e.Expected.Name(), describeValue(e.Actual))
	}
	return e.Message
}

// Location is where an exception happened. The span is attached by the
// innermost evaluation site that knows one; the source text is attached
// once, by the first context-aware caller on the way out.
type Location struct {
	Span       compiler.Span
	HasSpan    bool
	Name       string
	Source     string
	HasContext bool
}

// Unwind is either a non-local return travelling to its home frame or an
// exception. Every fallible operation in the runtime returns one as its
// error.
type Unwind struct {
	returning bool
	target    *Env
	value     Object

	Err Error
	Loc Location
}

func newReturn(target *Env, value Object) *Unwind {
	return &Unwind{returning: true, target: target, value: value}
}

const nothingToReturnFrom = "Nothing to return from"

// escapedReturn turns a return that found no live home into an exception
// at span. Exceptions pass through unchanged.
func escapedReturn(u *Unwind, span compiler.Span) *Unwind {
	if !u.returning {
		return u
	}
	return errorf(nothingToReturnFrom).WithSpan(span)
}

func errorf(format string, args ...interface{}) *Unwind {
	return &Unwind{Err: Error{Kind: SimpleError, Message: fmt.Sprintf(format, args...)}}
}

func typeError(expected *VTable, actual Object) *Unwind {
	return &Unwind{Err: Error{Kind: TypeError, Expected: expected, Actual: actual}}
}

// typeErrorf is a type error with a custom description.
func typeErrorf(expected *VTable, actual Object, format string, args ...interface{}) *Unwind {
	u := typeError(expected, actual)
	u.Err.Message = fmt.Sprintf(format, args...)
	return u
}

func endOfInput(msg string, span compiler.Span) *Unwind {
	u := &Unwind{Err: Error{Kind: EndOfInput, Message: msg}}
	return u.WithSpan(span)
}

// IsReturn reports whether u is a non-local return.
func (u *Unwind) IsReturn() bool { return u.returning }

// Kind returns the exception kind.
func (u *Unwind) Kind() ErrorKind { return u.Err.Kind }

// Message returns the one-line description without location.
func (u *Unwind) Message() string {
	if u.returning {
		return "non-local return"
	}
	return u.Err.Describe()
}

// Span returns the attached span, if any.
func (u *Unwind) Span() (compiler.Span, bool) {
	return u.Loc.Span, u.Loc.HasSpan
}

// WithSpan attaches span unless one is already present.
func (u *Unwind) WithSpan(span compiler.Span) *Unwind {
	if !u.returning && !u.Loc.HasSpan && !span.IsZero() {
		u.Loc.Span = span
		u.Loc.HasSpan = true
	}
	return u
}

// WithContext attaches the source text the span refers to. Only the first
// call has an effect.
func (u *Unwind) WithContext(name, source string) *Unwind {
	if u.returning || u.Loc.HasContext {
		return u
	}
	u.Loc.Name = name
	u.Loc.Source = source
	u.Loc.HasContext = true
	return u
}

// Error renders the exception. With context attached it is a line-numbered
// excerpt with a caret span; otherwise just the span position.
func (u *Unwind) Error() string {
	if u.returning {
		return "non-local return"
	}
	msg := u.Err.Describe()
	switch {
	case u.Loc.HasSpan && u.Loc.HasContext:
		return renderDiagnostic(u.Loc.Name, u.Loc.Source, u.Loc.Span, msg)
	case u.Loc.HasSpan:
		return fmt.Sprintf("%d:%d: %s", u.Loc.Span.Start.Line, u.Loc.Span.Start.Column, msg)
	case u.Loc.HasContext && u.Loc.Name != "":
		return fmt.Sprintf("%s: %s", u.Loc.Name, msg)
	}
	return msg
}

// IsEndOfInput reports whether err is an end-of-input exception.
func IsEndOfInput(err error) bool {
	var u *Unwind
	return errors.As(err, &u) && !u.returning && u.Err.Kind == EndOfInput
}

// asUnwind normalizes any error reaching the runtime into an Unwind.
func asUnwind(err error) *Unwind {
	var u *Unwind
	if errors.As(err, &u) {
		return u
	}
	var pe *compiler.Error
	if errors.As(err, &pe) {
		if pe.Incomplete {
			return endOfInput(pe.Message, pe.Span)
		}
		return errorf("Syntax error: %s", pe.Message).WithSpan(pe.Span)
	}
	return errorf("%s", err.Error())
}

// withSpan attaches span to err if it is an exception without one.
func withSpan(err error, span compiler.Span) error {
	if u, ok := err.(*Unwind); ok {
		u.WithSpan(span)
	}
	return err
}
