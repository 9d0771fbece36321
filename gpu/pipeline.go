// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilebucket"
)

//go:embed shaders/fill.wgsl
var fillShaderSource string

//go:embed shaders/pattern.wgsl
var patternShaderSource string

//go:embed shaders/outline.wgsl
var outlineShaderSource string

// PipelineSet owns the render pipelines of every shader kind.
type PipelineSet struct {
	device    hal.Device
	layout    hal.PipelineLayout
	shaders   []hal.ShaderModule
	pipelines Pipelines
}

// NewPipelineSet compiles the bucket shaders and creates one pipeline per
// shader kind rendering into targets of the given format.
func NewPipelineSet(device hal.Device, format gputypes.TextureFormat) (*PipelineSet, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	s := &PipelineSet{device: device, pipelines: make(Pipelines)}

	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "tilebucket_pipe_layout",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	s.layout = layout

	sources := []struct {
		kind   tilebucket.ShaderKind
		source string
	}{
		{tilebucket.ShaderPlain, fillShaderSource},
		{tilebucket.ShaderPattern, patternShaderSource},
		{tilebucket.ShaderOutline, outlineShaderSource},
	}
	for _, src := range sources {
		if err := s.create(src.kind, src.source, format); err != nil {
			s.Destroy()
			return nil, err
		}
	}
	return s, nil
}

func (s *PipelineSet) create(kind tilebucket.ShaderKind, source string, format gputypes.TextureFormat) error {
	shader, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  kind.String() + "_shader",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile %s shader: %w", kind, err)
	}
	s.shaders = append(s.shaders, shader)

	blend := gputypes.BlendStatePremultiplied()
	pipeline, err := s.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  kind.String() + "_pipeline",
		Layout: s.layout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create %s pipeline: %w", kind, err)
	}
	s.pipelines[kind] = pipeline
	return nil
}

// vertexLayout matches tilebucket.VertexBuffer records: two int16 per
// vertex.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: tilebucket.VertexItemSize,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatSint16x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// Pipelines returns the pipelines by shader kind.
func (s *PipelineSet) Pipelines() Pipelines {
	return s.pipelines
}

// Destroy releases all pipeline resources in reverse creation order.
func (s *PipelineSet) Destroy() {
	if s.device == nil {
		return
	}
	for k, p := range s.pipelines {
		s.device.DestroyRenderPipeline(p)
		delete(s.pipelines, k)
	}
	if s.layout != nil {
		s.device.DestroyPipelineLayout(s.layout)
		s.layout = nil
	}
	for i := len(s.shaders) - 1; i >= 0; i-- {
		s.device.DestroyShaderModule(s.shaders[i])
	}
	s.shaders = nil
}
