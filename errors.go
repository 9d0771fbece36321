package tilebucket

import "errors"

var (
	// ErrGeometryTooLarge is returned when a single AddGeometry call
	// produces more vertices or indices than one 16-bit draw group can
	// address. The bucket is unusable afterwards.
	ErrGeometryTooLarge = errors.New("tilebucket: geometry too large for a 16-bit draw group")

	// ErrBucketFailed is returned by operations on a bucket whose build
	// already failed.
	ErrBucketFailed = errors.New("tilebucket: bucket build failed")

	// ErrNotUploaded is returned when drawing a bucket before Upload.
	ErrNotUploaded = errors.New("tilebucket: bucket not uploaded")

	// ErrAlreadyUploaded is returned when adding geometry after Upload.
	ErrAlreadyUploaded = errors.New("tilebucket: bucket already uploaded")

	// ErrInterleavedBuild is returned when another writer appended to a
	// shared buffer between two AddGeometry calls of the same bucket.
	ErrInterleavedBuild = errors.New("tilebucket: shared buffer modified by another bucket during build")

	// ErrNilUploader is returned by Upload when no uploader is given.
	ErrNilUploader = errors.New("tilebucket: nil uploader")
)
