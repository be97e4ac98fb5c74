package wgpu

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glstate"
)

type input struct {
	name     string
	location int
}

var stages = map[glstate.ShaderKind]ir.ShaderStage{
	glstate.VertexShader:   ir.StageVertex,
	glstate.FragmentShader: ir.StageFragment,
}

var stageNames = map[ir.ShaderStage]string{
	ir.StageVertex:   "vertex",
	ir.StageTask:     "task",
	ir.StageMesh:     "mesh",
	ir.StageFragment: "fragment",
	ir.StageCompute:  "compute",
}

// Compile implements glstate.Native. The source is WGSL; rejected sources
// are reported in the info log.
func (d *Driver) Compile(id glstate.ID, kind glstate.ShaderKind, source string) (glstate.CompileResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.get(glstate.KindShader, id)
	if err != nil {
		return glstate.CompileResult{}, err
	}

	module, log, ok := translate(kind, source)
	if !ok {
		d.logger().Debug("wgpu: compile failed", "shader", id, "kind", kind.String(), "log", log)
		return glstate.CompileResult{Log: log}, nil
	}

	sm, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("glstate %s shader %d", kind, id),
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return glstate.CompileResult{}, fmt.Errorf("wgpu: create shader module %d: %w", id, err)
	}
	if s.module != nil {
		d.device.DestroyShaderModule(s.module)
	}
	s.module, s.shaderKind, s.compiled = sm, kind, true
	s.inputs = vertexInputs(kind, module)
	return glstate.CompileResult{OK: true, Log: log}, nil
}

// translate parses and lowers source and checks that it has an entry point
// for kind. Validation findings do not fail the compile; they are returned
// as warnings in the log.
func translate(kind glstate.ShaderKind, source string) (*ir.Module, string, bool) {
	stage, ok := stages[kind]
	if !ok {
		return nil, fmt.Sprintf("ERROR: %s shaders are not supported", kind), false
	}
	if strings.TrimSpace(source) == "" {
		return nil, "ERROR: empty source", false
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, "ERROR: " + err.Error(), false
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, "ERROR: " + err.Error(), false
	}
	if entryPoint(module, stage) == nil {
		var found []string
		for _, ep := range module.EntryPoints {
			found = append(found, stageNames[ep.Stage]+" "+ep.Name)
		}
		return nil, fmt.Sprintf("ERROR: no %s entry point (found %v)", stageNames[stage], found), false
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, "ERROR: " + err.Error(), false
	}
	lines := make([]string, len(verrs))
	for i, ve := range verrs {
		lines[i] = "WARNING: " + ve.Error()
	}
	return module, strings.Join(lines, "\n"), true
}

func entryPoint(m *ir.Module, stage ir.ShaderStage) *ir.EntryPoint {
	for i := range m.EntryPoints {
		if m.EntryPoints[i].Stage == stage {
			return &m.EntryPoints[i]
		}
	}
	return nil
}

// vertexInputs returns the @location inputs of the vertex entry point,
// including members of struct arguments.
func vertexInputs(kind glstate.ShaderKind, m *ir.Module) []input {
	if kind != glstate.VertexShader {
		return nil
	}
	ep := entryPoint(m, ir.StageVertex)
	var ins []input
	for _, arg := range ep.Function.Arguments {
		if loc, ok := location(arg.Binding); ok {
			ins = append(ins, input{name: arg.Name, location: loc})
			continue
		}
		if int(arg.Type) >= len(m.Types) {
			continue
		}
		st, ok := m.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, mem := range st.Members {
			if loc, ok := location(mem.Binding); ok {
				ins = append(ins, input{name: mem.Name, location: loc})
			}
		}
	}
	return ins
}

func location(b *ir.Binding) (int, bool) {
	if b == nil {
		return 0, false
	}
	lb, ok := (*b).(ir.LocationBinding)
	if !ok {
		return 0, false
	}
	return int(lb.Location), true
}

// Link implements glstate.Native. Attribute locations come from the
// @location inputs of the vertex shaders; two inputs claiming one location
// fail the link.
func (d *Driver) Link(id glstate.ID, shaders []glstate.ID) (glstate.LinkResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.get(glstate.KindProgram, id)
	if err != nil {
		return glstate.LinkResult{}, err
	}

	attribs := make(map[string]int)
	owner := make(map[int]string)
	for _, sid := range shaders {
		s, ok := d.objects[glstate.KindShader][sid]
		if !ok || !s.compiled {
			return glstate.LinkResult{Log: fmt.Sprintf("ERROR: shader %d is not compiled", sid)}, nil
		}
		for _, in := range s.inputs {
			if name, taken := owner[in.location]; taken && name != in.name {
				return glstate.LinkResult{Log: fmt.Sprintf("ERROR: inputs %s and %s both use location %d", name, in.name, in.location)}, nil
			}
			owner[in.location] = in.name
			attribs[in.name] = in.location
		}
	}
	p.attribs = attribs
	d.logger().Debug("wgpu: link", "program", id, "shaders", slices.Clone(shaders), "attributes", len(attribs))
	return glstate.LinkResult{OK: true, Attributes: attribs}, nil
}
