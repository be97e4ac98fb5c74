package trace

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/glstate"
)

// Trace errors.
var (
	// ErrInvalidTrace is returned for documents that cannot be replayed.
	ErrInvalidTrace = errors.New("trace: invalid trace")

	// ErrUnexpectedSuccess is recorded when a step with expect succeeds.
	ErrUnexpectedSuccess = errors.New("trace: step succeeded but a failure was expected")

	// ErrWrongError is recorded when a step fails with another error than
	// the expected one.
	ErrWrongError = errors.New("trace: step failed with an unexpected error")

	// ErrLocationMismatch is recorded when attrib-location returns another
	// location than the step names.
	ErrLocationMismatch = errors.New("trace: attribute location mismatch")
)

// Trace is a parsed trace document.
type Trace struct {
	// Name labels the replay context.
	Name string `yaml:"name,omitempty"`

	// LinkPolicy is "default" or "strict". Empty keeps the caller's choice.
	LinkPolicy string `yaml:"link_policy,omitempty"`

	// Stereo overrides the stereo setting of the caller when set.
	Stereo *bool `yaml:"stereo,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is one recorded call. Which fields are read depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Name is the handle the step creates or operates on.
	Name string `yaml:"name,omitempty"`

	// Shader is the shader handle of attach-shader and detach-shader;
	// Name is the program.
	Shader string `yaml:"shader,omitempty"`

	Kind   string `yaml:"kind,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Read and Write are the targets of copy-buffer-sub-data.
	Read        string `yaml:"read,omitempty"`
	Write       string `yaml:"write,omitempty"`
	ReadOffset  int    `yaml:"read_offset,omitempty"`
	WriteOffset int    `yaml:"write_offset,omitempty"`

	Size   int    `yaml:"size,omitempty"`
	Offset int    `yaml:"offset,omitempty"`
	Usage  string `yaml:"usage,omitempty"`
	Data   []byte `yaml:"data,omitempty"`

	Source string `yaml:"source,omitempty"`

	Level  int    `yaml:"level,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
	Depth  int    `yaml:"depth,omitempty"`
	Format string `yaml:"format,omitempty"`

	// Index, Size, Type, Normalized, Stride and Offset describe a vertex
	// attribute pointer.
	Index      int    `yaml:"index,omitempty"`
	Type       string `yaml:"type,omitempty"`
	Normalized bool   `yaml:"normalized,omitempty"`
	Stride     int    `yaml:"stride,omitempty"`

	Attribute string `yaml:"attribute,omitempty"`
	Location  *int   `yaml:"location,omitempty"`

	Mode  string `yaml:"mode,omitempty"`
	First int    `yaml:"first,omitempty"`
	Count int    `yaml:"count,omitempty"`
	Mask  string `yaml:"mask,omitempty"`
	Plane string `yaml:"plane,omitempty"`

	// Expect names the error the step must fail with, for example
	// "point-occupied" or "protocol-violation".
	Expect string `yaml:"expect,omitempty"`
}

// errorNames maps the names accepted by expect to context errors.
var errorNames = map[string]error{
	"protocol-violation":       glstate.ErrProtocolViolation,
	"native-failure":           glstate.ErrNativeFailure,
	"unknown-resource":         glstate.ErrUnknownResource,
	"already-deleted":          glstate.ErrAlreadyDeleted,
	"point-occupied":           glstate.ErrPointOccupied,
	"already-bound":            glstate.ErrAlreadyBound,
	"not-bound":                glstate.ErrNotBound,
	"target-mismatch":          glstate.ErrTargetMismatch,
	"bound-elsewhere":          glstate.ErrBoundElsewhere,
	"still-bound":              glstate.ErrStillBound,
	"already-attached":         glstate.ErrAlreadyAttached,
	"not-attached":             glstate.ErrNotAttached,
	"invalid-argument":         glstate.ErrInvalidArgument,
	"data-already-assigned":    glstate.ErrDataAlreadyAssigned,
	"no-data-store":            glstate.ErrNoDataStore,
	"out-of-range":             glstate.ErrOutOfRange,
	"no-image":                 glstate.ErrNoImage,
	"source-already-set":       glstate.ErrSourceAlreadySet,
	"no-source":                glstate.ErrNoSource,
	"already-compiled":         glstate.ErrAlreadyCompiled,
	"shader-not-compiled":      glstate.ErrShaderNotCompiled,
	"shader-not-linked":        glstate.ErrShaderNotLinked,
	"shader-attached":          glstate.ErrShaderAttached,
	"program-already-linked":   glstate.ErrProgramAlreadyLinked,
	"program-not-linked":       glstate.ErrProgramNotLinked,
	"not-all-shaders-compiled": glstate.ErrNotAllShadersCompiled,
	"link-policy":              glstate.ErrLinkPolicy,
	"unknown-attribute":        glstate.ErrUnknownAttribute,
	"no-vertex-layout":         glstate.ErrNoVertexLayout,
	"no-program":               glstate.ErrNoProgram,
	"missing-pointer":          glstate.ErrMissingPointer,
	"unavailable-plane":        glstate.ErrUnavailablePlane,
	"not-default-framebuffer":  glstate.ErrNotDefaultFramebuffer,
	"compile":                  glstate.ErrCompile,
	"link":                     glstate.ErrLink,
}

// ErrorNames returns the names accepted by expect, sorted.
func ErrorNames() []string {
	return slices.Sorted(maps.Keys(errorNames))
}

// Ops returns the supported step operations, sorted.
func Ops() []string {
	return slices.Sorted(maps.Keys(ops))
}

// Parse decodes a trace document and checks every step names a known
// operation and expected error.
func Parse(r io.Reader) (*Trace, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var t Trace
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidTrace)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrace, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and parses the trace file at path.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate checks the header and the op and expect names of every step.
// Handles are resolved during replay.
func (t *Trace) Validate() error {
	if _, err := glstate.ParseLinkPolicy(t.LinkPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTrace, err)
	}
	for i, s := range t.Steps {
		if _, ok := ops[s.Op]; !ok {
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalidTrace, i, s.Op)
		}
		if _, ok := errorNames[s.Expect]; s.Expect != "" && !ok {
			return fmt.Errorf("%w: step %d: unknown error name %q", ErrInvalidTrace, i, s.Expect)
		}
	}
	return nil
}

// Options returns the context options the trace header asks for.
func (t *Trace) Options() []glstate.ContextOption {
	var opts []glstate.ContextOption
	if t.Name != "" {
		opts = append(opts, glstate.WithLabel(t.Name))
	}
	if t.LinkPolicy != "" {
		if p, err := glstate.ParseLinkPolicy(t.LinkPolicy); err == nil {
			opts = append(opts, glstate.WithLinkPolicy(p))
		}
	}
	if t.Stereo != nil {
		opts = append(opts, glstate.WithStereo(*t.Stereo))
	}
	return opts
}
