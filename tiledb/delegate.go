package tiledb

import (
	"context"

	"github.com/robert-malhotra/go-tiledb/internal/fragment"
)

// FragmentMetadata describes one committed fragment of an array.
type FragmentMetadata = fragment.Metadata

// ReadPath executes read queries. A query drives it through Init once and
// then Read once per Process call until Incomplete reports false.
type ReadPath interface {
	Init(ctx context.Context) error
	Read(ctx context.Context) error

	// Incomplete reports whether the last Read stopped before producing
	// every result because the buffers were full.
	Incomplete() bool
	// NoResults reports whether the last Read found no fragment data.
	NoResults() bool

	SetArraySchema(schema *ArraySchema)
	SetFragmentMetadata(frags []*FragmentMetadata)
	SetBuffer(name string, buf *AttributeBuffer) error
	SetSubarray(subarray []byte) error
	SetLayout(l Layout) error

	FragmentNum() int
	FragmentURIs() []string
	LastFragmentURI() string
}

// WritePath executes write queries. A query drives it through Init once,
// Write once and Finalize when the caller finalizes the query.
type WritePath interface {
	Init(ctx context.Context) error
	Write(ctx context.Context) error
	Finalize(ctx context.Context) error

	SetArraySchema(schema *ArraySchema)
	SetBuffer(name string, buf *AttributeBuffer) error
	SetSubarray(subarray []byte) error
	SetLayout(l Layout) error
	SetFragmentURI(uri string)
}

// pathSetters is the configuration surface shared by both paths.
type pathSetters interface {
	SetArraySchema(schema *ArraySchema)
	SetBuffer(name string, buf *AttributeBuffer) error
	SetSubarray(subarray []byte) error
	SetLayout(l Layout) error
}

// delegate is either a readDelegate or a writeDelegate.
type delegate interface {
	setters() pathSetters
	init(ctx context.Context) error
}

type readDelegate struct{ path ReadPath }

func (d readDelegate) setters() pathSetters           { return d.path }
func (d readDelegate) init(ctx context.Context) error { return d.path.Init(ctx) }

type writeDelegate struct{ path WritePath }

func (d writeDelegate) setters() pathSetters           { return d.path }
func (d writeDelegate) init(ctx context.Context) error { return d.path.Init(ctx) }

// QueryOption configures query construction.
type QueryOption func(*queryOptions)

type queryOptions struct {
	read  ReadPath
	write WritePath
}

// WithReadPath replaces the default Reader of a read query.
func WithReadPath(p ReadPath) QueryOption {
	return func(o *queryOptions) {
		o.read = p
	}
}

// WithWritePath replaces the default Writer of a write query.
func WithWritePath(p WritePath) QueryOption {
	return func(o *queryOptions) {
		o.write = p
	}
}
