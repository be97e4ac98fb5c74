package glstate

import (
	"errors"
	"fmt"

	"github.com/gogpu/glstate/internal/binding"
	"github.com/gogpu/glstate/internal/depgraph"
	"github.com/gogpu/glstate/internal/registry"
)

// Error categories.
var (
	// ErrProtocolViolation is matched by every rejected transition.
	ErrProtocolViolation = errors.New("glstate: protocol violation")

	// ErrNativeFailure is matched by every failure reported by the native layer.
	ErrNativeFailure = errors.New("glstate: native operation failed")

	// ErrUnknownResource is returned for a resource this context never created.
	ErrUnknownResource = errors.New("glstate: unknown resource")

	// ErrAlreadyDeleted is returned for a resource that was deleted.
	ErrAlreadyDeleted = errors.New("glstate: resource already deleted")
)

// Binding and dependency violations. These alias the errors of the
// underlying tables so errors.Is works on either name.
var (
	ErrPointOccupied   = binding.ErrPointOccupied
	ErrAlreadyBound    = binding.ErrAlreadyBound
	ErrNotBound        = binding.ErrNotBound
	ErrTargetMismatch  = binding.ErrTargetMismatch
	ErrBoundElsewhere  = binding.ErrBoundElsewhere
	ErrStillBound      = binding.ErrStillBound
	ErrAlreadyAttached = depgraph.ErrAlreadyAttached
	ErrNotAttached     = depgraph.ErrNotAttached
)

// Lifecycle violations.
var (
	ErrInvalidArgument       = errors.New("glstate: invalid argument")
	ErrDataAlreadyAssigned   = errors.New("glstate: buffer data store already assigned")
	ErrNoDataStore           = errors.New("glstate: buffer has no data store")
	ErrOutOfRange            = errors.New("glstate: range outside buffer data store")
	ErrNoImage               = errors.New("glstate: texture has no base level image")
	ErrSourceAlreadySet      = errors.New("glstate: shader source already set")
	ErrNoSource              = errors.New("glstate: shader has no source")
	ErrAlreadyCompiled       = errors.New("glstate: shader already compiled")
	ErrShaderNotCompiled     = errors.New("glstate: shader not compiled")
	ErrShaderNotLinked       = errors.New("glstate: shader not linked into any program")
	ErrShaderAttached        = errors.New("glstate: shader attached to an unlinked program")
	ErrProgramAlreadyLinked  = errors.New("glstate: program already linked")
	ErrProgramNotLinked      = errors.New("glstate: program not linked")
	ErrNotAllShadersCompiled = errors.New("glstate: not all attached shaders are compiled")
	ErrLinkPolicy            = errors.New("glstate: attached shaders do not satisfy link policy")
	ErrUnknownAttribute      = errors.New("glstate: unknown vertex attribute")
	ErrNoVertexLayout        = errors.New("glstate: no vertex layout bound")
	ErrNoProgram             = errors.New("glstate: no program in use")
	ErrMissingPointer        = errors.New("glstate: enabled attribute has no pointer")
	ErrUnavailablePlane      = errors.New("glstate: plane not available on default framebuffer")
	ErrNotDefaultFramebuffer = errors.New("glstate: default framebuffer is not the draw target")
)

// Native failure reasons.
var (
	ErrCompile = errors.New("glstate: shader compilation failed")
	ErrLink    = errors.New("glstate: program link failed")
)

// ObjectError reports an operation on a resource the context does not know
// or has already deleted.
type ObjectError struct {
	Op   string
	Kind Kind
	ID   ID
	Err  error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("glstate: %s %s %d: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

// ProtocolError reports a transition rejected by the shadow state.
// The native layer was not called.
type ProtocolError struct {
	Op   string
	Kind Kind
	ID   ID
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.ID == NoID {
		return fmt.Sprintf("glstate: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("glstate: %s %s %d: %v", e.Op, e.Kind, e.ID, e.Err)
}

// Unwrap exposes both the category and the specific reason.
func (e *ProtocolError) Unwrap() []error { return []error{ErrProtocolViolation, e.Err} }

// NativeError reports a call the native layer refused. Log carries the
// compiler or linker output when there is one.
type NativeError struct {
	Op   string
	Kind Kind
	ID   ID
	Log  string
	Err  error
}

func (e *NativeError) Error() string {
	var msg string
	if e.ID == NoID {
		msg = fmt.Sprintf("glstate: %s: %v", e.Op, e.Err)
	} else {
		msg = fmt.Sprintf("glstate: %s %s %d: %v", e.Op, e.Kind, e.ID, e.Err)
	}
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

// Unwrap exposes both the category and the specific reason.
func (e *NativeError) Unwrap() []error { return []error{ErrNativeFailure, e.Err} }

// registryError translates registry lookup errors into the package errors.
func registryError(err error) error {
	switch {
	case errors.Is(err, registry.ErrDeleted):
		return ErrAlreadyDeleted
	case errors.Is(err, registry.ErrUnknown):
		return ErrUnknownResource
	}
	return err
}

// isObjectError reports whether err is an existence failure.
func isObjectError(err error) bool {
	return errors.Is(err, ErrUnknownResource) || errors.Is(err, ErrAlreadyDeleted)
}
