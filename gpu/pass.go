// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilebucket"
)

// RenderPass is the subset of hal.RenderPassEncoder used to draw buckets.
type RenderPass interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// Pipelines maps a shader kind to the render pipeline implementing it.
type Pipelines map[tilebucket.ShaderKind]hal.RenderPipeline

// PassRecorder adapts a RenderPass to tilebucket.DrawPass. Draws whose
// pipeline or buffers are not usable are dropped and counted.
//
// PassRecorder is not safe for concurrent use.
type PassRecorder struct {
	pass      RenderPass
	pipelines Pipelines

	shader  tilebucket.ShaderKind
	noPipe  bool
	vbValid bool
	ibValid bool

	draws   int
	skipped int
}

var _ tilebucket.DrawPass = (*PassRecorder)(nil)

// NewPassRecorder returns a recorder issuing commands into pass.
func NewPassRecorder(pass RenderPass, pipelines Pipelines) *PassRecorder {
	return &PassRecorder{pass: pass, pipelines: pipelines}
}

// SetShader binds the pipeline registered for kind.
func (r *PassRecorder) SetShader(kind tilebucket.ShaderKind) {
	r.shader = kind
	p, ok := r.pipelines[kind]
	r.noPipe = !ok || p == nil
	if r.noPipe {
		tilebucket.Logger().Warn("gpu: no pipeline for shader", "shader", kind)
		return
	}
	r.pass.SetPipeline(p)
}

// SetVertexBuffer binds buf to slot 0.
func (r *PassRecorder) SetVertexBuffer(buf tilebucket.GPUBuffer, offset uint64) {
	b, ok := buf.(hal.Buffer)
	r.vbValid = ok && b != nil
	if r.vbValid {
		r.pass.SetVertexBuffer(0, b, offset)
	}
}

// SetIndexBuffer binds buf as a uint16 index buffer.
func (r *PassRecorder) SetIndexBuffer(buf tilebucket.GPUBuffer, offset uint64) {
	b, ok := buf.(hal.Buffer)
	r.ibValid = ok && b != nil
	if r.ibValid {
		r.pass.SetIndexBuffer(b, gputypes.IndexFormatUint16, offset)
	}
}

// DrawIndexed draws one instance of indexCount indices.
func (r *PassRecorder) DrawIndexed(indexCount uint32) {
	if r.noPipe || !r.vbValid || !r.ibValid {
		r.skipped++
		tilebucket.Logger().Warn("gpu: draw skipped",
			"shader", r.shader, "pipeline", !r.noPipe,
			"vertexBuffer", r.vbValid, "indexBuffer", r.ibValid)
		return
	}
	r.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
	r.draws++
}

// Draws returns the number of draw commands recorded.
func (r *PassRecorder) Draws() int {
	return r.draws
}

// Skipped returns the number of draws dropped.
func (r *PassRecorder) Skipped() int {
	return r.skipped
}
