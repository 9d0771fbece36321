// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu binds fill buckets to a wgpu HAL device.
//
// An [Uploader] copies bucket buffers into device buffers and a
// [PassRecorder] turns bucket draw calls into render pass commands:
//
//	up, err := gpu.NewUploader(device, queue)
//	if err != nil { ... }
//	defer up.Release()
//	if err := bucket.Upload(up); err != nil { ... }
//
//	rec := gpu.NewPassRecorder(renderPass, pipelines)
//	bucket.Render(tilebucket.NewPainter(rec), layer, id, m)
//
// Any device works, including the noop backend used in tests. A device
// shared with gogpu is obtained through [NewUploaderFromProvider].
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilebucket"
)

var (
	// ErrNilDevice is returned when an Uploader is created without a
	// device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")

	// ErrNoHAL is returned when a device provider does not expose HAL
	// device and queue handles.
	ErrNoHAL = errors.New("gpu: provider does not expose HAL types")

	// ErrReleased is returned by Upload after Release.
	ErrReleased = errors.New("gpu: uploader released")
)

// copyAlign is the size granularity of queue writes.
const copyAlign = 4

// Uploader creates device buffers for bucket data. It owns every buffer
// it creates until Release.
//
// Uploader is safe for concurrent use.
type Uploader struct {
	device hal.Device
	queue  hal.Queue

	mu       sync.Mutex
	buffers  []hal.Buffer
	bytes    uint64
	released bool
}

// NewUploader returns an Uploader writing through queue into buffers
// created on device.
func NewUploader(device hal.Device, queue hal.Queue) (*Uploader, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Uploader{device: device, queue: queue}, nil
}

// NewUploaderFromProvider returns an Uploader on a device shared by an
// external provider such as gogpu. The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func NewUploaderFromProvider(provider gpucontext.DeviceProvider) (*Uploader, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewUploader(device, queue)
}

// Upload implements tilebucket.Uploader. The returned handle is a
// hal.Buffer. Data is zero-padded to a multiple of four bytes.
func (u *Uploader) Upload(usage tilebucket.BufferUsage, label string, data []byte) (tilebucket.GPUBuffer, error) {
	var flags gputypes.BufferUsage
	switch usage {
	case tilebucket.UsageVertex:
		flags = gputypes.BufferUsageVertex
	case tilebucket.UsageIndex:
		flags = gputypes.BufferUsageIndex
	default:
		return nil, fmt.Errorf("gpu: upload %s: unknown usage %v", label, usage)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.released {
		return nil, ErrReleased
	}

	if rem := len(data) % copyAlign; rem != 0 {
		padded := make([]byte, len(data)+copyAlign-rem)
		copy(padded, data)
		data = padded
	}

	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: flags | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	u.queue.WriteBuffer(buf, 0, data)

	u.buffers = append(u.buffers, buf)
	u.bytes += uint64(len(data))
	tilebucket.Logger().Debug("gpu: buffer uploaded",
		"label", label, "usage", usage, "bytes", len(data))
	return buf, nil
}

// Buffers returns the number of live buffers.
func (u *Uploader) Buffers() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.buffers)
}

// Bytes returns the total size of live buffers.
func (u *Uploader) Bytes() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bytes
}

// Release destroys every buffer created by u. Later uploads fail with
// ErrReleased. Release is safe to call multiple times.
func (u *Uploader) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.released {
		return
	}
	for _, b := range u.buffers {
		u.device.DestroyBuffer(b)
	}
	u.buffers = nil
	u.bytes = 0
	u.released = true
}
