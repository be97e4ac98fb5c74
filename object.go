package glstate

import "fmt"

// ID is the name the native layer assigns to a resource.
type ID uint32

// NoID names "nothing bound". The native layer never returns it.
const NoID ID = 0

// Kind identifies the resource family an ID belongs to. IDs are unique
// per kind only.
type Kind uint8

// Resource kinds.
const (
	KindBuffer Kind = iota
	KindTexture
	KindVertexLayout
	KindShader
	KindProgram
	KindFramebuffer
)

var kindNames = [...]string{
	KindBuffer:       "buffer",
	KindTexture:      "texture",
	KindVertexLayout: "vertex-layout",
	KindShader:       "shader",
	KindProgram:      "program",
	KindFramebuffer:  "framebuffer",
}

// Kinds lists every resource kind in declaration order.
var Kinds = []Kind{KindBuffer, KindTexture, KindVertexLayout, KindShader, KindProgram, KindFramebuffer}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidArgument, s)
}

// ObjectHeader holds the state shared by every resource.
type ObjectHeader struct {
	id      ID
	deleted bool
}

// ID returns the native name of the resource.
func (h *ObjectHeader) ID() ID { return h.id }

// Deleted reports whether the resource was deleted. Once true it stays true.
func (h *ObjectHeader) Deleted() bool { return h.deleted }

func (h *ObjectHeader) markDeleted() { h.deleted = true }

// Resource is implemented by every resource handle.
type Resource interface {
	ID() ID
	Kind() Kind
	Deleted() bool
}

// objectKey identifies a resource inside the binding table.
type objectKey struct {
	kind Kind
	id   ID
}

func keyOf(r Resource) objectKey { return objectKey{kind: r.Kind(), id: r.ID()} }
