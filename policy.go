package glstate

import (
	"fmt"
	"slices"
)

// LinkPolicy is the rule the attached shaders of a program must satisfy
// before LinkProgram calls the native linker.
type LinkPolicy struct {
	// MinShaders is the least number of attached shaders.
	MinShaders int

	// Required lists shader kinds that must be attached.
	Required []ShaderKind

	// UniqueKinds rejects two attached shaders of the same kind.
	UniqueKinds bool
}

// DefaultLinkPolicy accepts any program with at least one attached shader.
func DefaultLinkPolicy() LinkPolicy {
	return LinkPolicy{MinShaders: 1}
}

// StrictLinkPolicy requires exactly one vertex and one fragment shader,
// with an optional geometry shader.
func StrictLinkPolicy() LinkPolicy {
	return LinkPolicy{
		MinShaders:  2,
		Required:    []ShaderKind{VertexShader, FragmentShader},
		UniqueKinds: true,
	}
}

// Check reports whether a program with shaders of the given kinds may link.
func (p LinkPolicy) Check(kinds []ShaderKind) error {
	if len(kinds) < p.MinShaders {
		return fmt.Errorf("%w: %d shaders attached, need %d", ErrLinkPolicy, len(kinds), p.MinShaders)
	}
	for _, req := range p.Required {
		if !slices.Contains(kinds, req) {
			return fmt.Errorf("%w: no %s shader attached", ErrLinkPolicy, req)
		}
	}
	if p.UniqueKinds {
		seen := make(map[ShaderKind]bool, len(kinds))
		for _, k := range kinds {
			if seen[k] {
				return fmt.Errorf("%w: more than one %s shader attached", ErrLinkPolicy, k)
			}
			seen[k] = true
		}
	}
	return nil
}

// ParseLinkPolicy returns the policy named "default" or "strict".
func ParseLinkPolicy(s string) (LinkPolicy, error) {
	switch s {
	case "", "default":
		return DefaultLinkPolicy(), nil
	case "strict":
		return StrictLinkPolicy(), nil
	}
	return LinkPolicy{}, fmt.Errorf("%w: unknown link policy %q", ErrInvalidArgument, s)
}
