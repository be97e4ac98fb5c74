package glstate

// Native is the graphics layer a Context drives. A Context calls it only
// after a transition passed validation, and never calls it concurrently.
//
// Implementations report failures through the returned error. A failing
// call must leave the native object state unchanged as far as it can.
type Native interface {
	// Create allocates a new object of kind and returns its name.
	// The name must not be NoID and must not collide with a live object
	// of the same kind.
	Create(kind Kind) (ID, error)

	// Bind places id at point. NoID empties the point.
	Bind(point Point, id ID) error

	// Compile compiles source as a shader of the given kind.
	// A rejected source is reported through CompileResult, not the error.
	Compile(id ID, kind ShaderKind, source string) (CompileResult, error)

	// Link links program id from the given shaders.
	// A rejected link is reported through LinkResult, not the error.
	Link(id ID, shaders []ID) (LinkResult, error)

	// Submit executes a state-changing command.
	Submit(cmd Command) error

	// Delete destroys the object.
	Delete(kind Kind, id ID) error
}

// CompileResult is the outcome of Native.Compile.
type CompileResult struct {
	OK  bool
	Log string
}

// LinkResult is the outcome of Native.Link. Attributes maps vertex input
// names to their locations.
type LinkResult struct {
	OK         bool
	Log        string
	Attributes map[string]int
}

// Command is a state-changing call forwarded through Native.Submit.
type Command interface {
	command()
}

// BufferDataCommand allocates the data store of the buffer bound at Target.
// Data is nil when the store is left uninitialized.
type BufferDataCommand struct {
	Target BufferTarget
	Buffer ID
	Size   int
	Data   []byte
	Usage  BufferUsage
}

// BufferSubDataCommand overwrites part of a data store.
type BufferSubDataCommand struct {
	Target BufferTarget
	Buffer ID
	Offset int
	Data   []byte
}

// CopyBufferSubDataCommand copies between two data stores.
type CopyBufferSubDataCommand struct {
	ReadTarget  BufferTarget
	WriteTarget BufferTarget
	Read        ID
	Write       ID
	ReadOffset  int
	WriteOffset int
	Size        int
}

// TexImageCommand specifies one level of the texture bound at Target.
type TexImageCommand struct {
	Target  TextureTarget
	Texture ID
	Level   int
	Image   PixelData
}

// GenerateMipmapCommand derives every level from level 0.
type GenerateMipmapCommand struct {
	Target  TextureTarget
	Texture ID
	Levels  int
}

// VertexAttribPointerCommand records an attribute pointer in a vertex layout.
type VertexAttribPointerCommand struct {
	Layout  ID
	Pointer AttribPointer
}

// VertexAttribArrayCommand enables or disables an attribute of a vertex layout.
type VertexAttribArrayCommand struct {
	Layout  ID
	Index   int
	Enabled bool
}

// AttachShaderCommand attaches a shader to a program.
type AttachShaderCommand struct {
	Program ID
	Shader  ID
}

// DetachShaderCommand detaches a shader from a program.
type DetachShaderCommand struct {
	Program ID
	Shader  ID
}

// DrawBufferCommand selects the plane of the default framebuffer to draw into.
type DrawBufferCommand struct {
	Plane Plane
}

// ClearCommand clears the current draw framebuffer. Framebuffer is NoID for
// the default framebuffer.
type ClearCommand struct {
	Framebuffer ID
	Mask        ClearMask
}

// DrawCommand draws Count vertices starting at First.
type DrawCommand struct {
	Mode    DrawMode
	First   int
	Count   int
	Program ID
	Layout  ID
}

func (BufferDataCommand) command()          {}
func (BufferSubDataCommand) command()       {}
func (CopyBufferSubDataCommand) command()   {}
func (TexImageCommand) command()            {}
func (GenerateMipmapCommand) command()      {}
func (VertexAttribPointerCommand) command() {}
func (VertexAttribArrayCommand) command()   {}
func (AttachShaderCommand) command()        {}
func (DetachShaderCommand) command()        {}
func (DrawBufferCommand) command()          {}
func (ClearCommand) command()               {}
func (DrawCommand) command()                {}
