package tilebucket

import "github.com/gogpu/tilebucket/internal/tess"

// AllocHints sizes the tessellator arena of a bucket.
type AllocHints = tess.AllocHints

// Allocator supplies tessellator memory. See WithAllocator.
type Allocator = tess.Allocator

// DefaultAllocHints returns the arena sizes used when no option is given.
func DefaultAllocHints() AllocHints {
	return tess.DefaultAllocHints()
}

// BucketOption configures a FillBucket during creation.
//
// Example:
//
//	// Larger arena for dense layers
//	hints := tilebucket.DefaultAllocHints()
//	hints.ExtraVertices = 1024
//	b := tilebucket.NewFillBucket(bufs, tilebucket.WithAllocHints(hints))
type BucketOption func(*bucketOptions)

// bucketOptions holds optional configuration for FillBucket creation.
type bucketOptions struct {
	hints AllocHints
	alloc Allocator
}

// defaultBucketOptions returns the default bucket options.
func defaultBucketOptions() bucketOptions {
	return bucketOptions{
		hints: DefaultAllocHints(),
		alloc: nil, // Arena sized from hints
	}
}

// WithAllocHints sizes the bucket's tessellator arena. Ignored when
// WithAllocator is also given.
func WithAllocHints(h AllocHints) BucketOption {
	return func(o *bucketOptions) {
		o.hints = h
	}
}

// WithAllocator injects the allocator the tessellator draws from.
// The allocator must not be shared with a bucket built concurrently.
func WithAllocator(a Allocator) BucketOption {
	return func(o *bucketOptions) {
		o.alloc = a
	}
}
