// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submitTimeout bounds the wait for a submitted frame.
const submitTimeout = 5 * time.Second

// ErrFrameTimeout is returned when a submitted frame does not complete
// within the wait timeout.
var ErrFrameTimeout = errors.New("gpu: frame wait timed out")

// Target is an offscreen color texture frames render into.
type Target struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView

	Width, Height uint32
	Format        gputypes.TextureFormat
}

// NewTarget creates a w x h color target.
func NewTarget(device hal.Device, w, h uint32, format gputypes.TextureFormat) (*Target, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "tilebucket_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create target texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "tilebucket_target_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create target view: %w", err)
	}
	return &Target{device: device, tex: tex, view: view, Width: w, Height: h, Format: format}, nil
}

// Destroy releases the texture and its view.
func (t *Target) Destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// Frame is one render pass into a Target. Draw buckets through the
// embedded PassRecorder, then call Submit.
type Frame struct {
	*PassRecorder

	device  hal.Device
	queue   hal.Queue
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
}

// BeginFrame starts a render pass clearing target.
func BeginFrame(device hal.Device, queue hal.Queue, target *Target, pipelines Pipelines) (*Frame, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "tilebucket_frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("tilebucket_frame"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "tilebucket_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	return &Frame{
		PassRecorder: NewPassRecorder(pass, pipelines),
		device:       device,
		queue:        queue,
		encoder:      encoder,
		pass:         pass,
	}, nil
}

// Submit ends the pass, submits it and waits for the device.
func (f *Frame) Submit() error {
	f.pass.End()

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer f.device.FreeCommandBuffer(cmdBuf)

	fence, err := f.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer f.device.DestroyFence(fence)

	if err := f.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := f.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("gpu: wait for frame: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrFrameTimeout, submitTimeout)
	}
	return nil
}
