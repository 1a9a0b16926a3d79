package tiledb

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/robert-malhotra/go-tiledb/internal/metrics"
)

// Query reads or writes a subarray of an array.
//
// A query is configured with SetLayout, SetSubarray and SetBuffer, then
// driven with Init, Process and Finalize. Its status moves
//
//	UNINITIALIZED -> INPROGRESS -> COMPLETED | INCOMPLETE | FAILED
//
// and an INCOMPLETE read resumes with another Process call. A Query is not
// safe for concurrent use.
type Query struct {
	typ      QueryType
	status   QueryStatus
	layout   Layout
	subarray []byte
	callback func()

	schema  *ArraySchema
	frags   []*FragmentMetadata
	buffers *BufferSet
	exec    delegate

	sm      *StorageManager
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewQuery creates a query of type typ over schema. frags is the fragment
// metadata a read consults and is ignored for writes. Without a
// WithReadPath or WithWritePath option the query uses the default Reader
// or Writer on sm; sm may be nil when the query only carries state, as
// with UnmarshalQuery.
func NewQuery(sm *StorageManager, typ QueryType, schema *ArraySchema, frags []*FragmentMetadata, opts ...QueryOption) (*Query, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: array schema is nil", ErrQuery)
	}
	if typ != Read && typ != Write {
		return nil, fmt.Errorf("%w: unknown query type %s", ErrQuery, typ)
	}

	o := &queryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	q := &Query{
		typ:     typ,
		status:  Uninitialized,
		layout:  RowMajor,
		schema:  schema,
		buffers: NewBufferSet(),
		sm:      sm,
		logger:  slog.Default(),
	}
	if sm != nil {
		q.logger = sm.logger
		q.metrics = sm.metrics
	}

	switch typ {
	case Read:
		path := o.read
		if path == nil {
			path = NewReader(sm)
		}
		path.SetArraySchema(schema)
		path.SetFragmentMetadata(frags)
		q.frags = frags
		q.exec = readDelegate{path: path}
	case Write:
		path := o.write
		if path == nil {
			path = NewWriter(sm)
		}
		path.SetArraySchema(schema)
		q.exec = writeDelegate{path: path}
	}

	if err := q.exec.setters().SetLayout(q.layout); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Query) fail(err error) error {
	q.logger.Error("query error", "type", q.typ.String(), "status", q.status.String(), "error", err)
	return err
}

// Init prepares the query for processing. It invokes the delegate's
// initialization only the first time; later calls just mark the query in
// progress again. If the delegate fails the query stays UNINITIALIZED so
// the caller can fix the configuration and retry.
func (q *Query) Init(ctx context.Context) error {
	switch q.status {
	case Completed, Failed:
		return q.fail(fmt.Errorf("%w: cannot init a %s query", ErrQueryTerminal, q.status))
	case Uninitialized:
		if err := q.exec.init(ctx); err != nil {
			return q.fail(delegateErr("init", err))
		}
	}
	q.status = InProgress
	return nil
}

// Process runs one unit of work: one read pass that fills as much of the
// buffers as fits, or one full write. A write is COMPLETED afterwards. A
// read is INCOMPLETE while results remain and COMPLETED once none do; the
// callback fires on the transition to COMPLETED.
func (q *Query) Process(ctx context.Context) error {
	switch q.status {
	case Uninitialized:
		return q.fail(fmt.Errorf("%w: cannot process query", ErrNotInitialized))
	case Completed, Failed:
		return q.fail(fmt.Errorf("%w: cannot process a %s query", ErrQueryTerminal, q.status))
	}

	start := time.Now()
	q.status = InProgress

	var err error
	switch d := q.exec.(type) {
	case readDelegate:
		if err = d.path.Read(ctx); err == nil {
			if d.path.Incomplete() {
				q.status = Incomplete
			} else {
				q.status = Completed
			}
		}
	case writeDelegate:
		if err = d.path.Write(ctx); err == nil {
			q.status = Completed
		}
	}
	if err != nil {
		q.status = Failed
		err = delegateErr(q.opName(), err)
	}
	q.metrics.ObserveProcess(q.typ.String(), q.status.String(), time.Since(start))
	if err != nil {
		return q.fail(err)
	}

	if q.status == Completed && q.callback != nil {
		q.callback()
	}
	return nil
}

func (q *Query) opName() string {
	if q.typ == Write {
		return "write"
	}
	return "read"
}

// Finalize marks the query COMPLETED, flushing a write delegate first. It
// does nothing on an uninitialized query. Results a read has not yet
// returned are abandoned.
func (q *Query) Finalize(ctx context.Context) error {
	if q.status == Uninitialized {
		return nil
	}
	if d, ok := q.exec.(writeDelegate); ok {
		if err := d.path.Finalize(ctx); err != nil {
			return q.fail(delegateErr("finalize", err))
		}
	}
	q.status = Completed
	return nil
}

// Cancel marks the query FAILED. It takes effect between Process calls.
func (q *Query) Cancel() {
	q.status = Failed
}

// SetLayout sets the order in which cells fill or drain the buffers.
func (q *Query) SetLayout(l Layout) error {
	if err := q.exec.setters().SetLayout(l); err != nil {
		return q.fail(err)
	}
	q.layout = l
	return nil
}

// SetSubarray restricts the query to subarray, which holds a low/high pair
// per dimension in the domain's datatype. nil selects the whole domain.
// The query returns to UNINITIALIZED and must be initialized again.
func (q *Query) SetSubarray(subarray []byte) error {
	if err := CheckSubarrayBounds(q.schema.Domain(), subarray); err != nil {
		return q.fail(err)
	}
	if err := q.exec.setters().SetSubarray(subarray); err != nil {
		return q.fail(err)
	}
	q.subarray = slices.Clone(subarray)
	q.status = Uninitialized
	return nil
}

// SetBuffer sets the buffer of a fixed-size attribute. *size is the
// capacity in bytes for reads and the number of bytes to write for writes.
func (q *Query) SetBuffer(name string, values []byte, size *uint64) error {
	return q.setBuffer(name, &AttributeBuffer{Values: values, ValuesSize: size})
}

// SetVarBuffer sets the buffers of a var-sized attribute: one byte offset
// into values per cell, and the values themselves. Both sizes are in bytes.
func (q *Query) SetVarBuffer(name string, offsets []uint64, offsetsSize *uint64, values []byte, valuesSize *uint64) error {
	return q.setBuffer(name, &AttributeBuffer{
		Values:      values,
		ValuesSize:  valuesSize,
		Offsets:     offsets,
		OffsetsSize: offsetsSize,
	})
}

func (q *Query) setBuffer(name string, buf *AttributeBuffer) error {
	if err := q.checkBuffer(name, buf); err != nil {
		return q.fail(err)
	}
	if err := q.exec.setters().SetBuffer(name, buf); err != nil {
		return q.fail(err)
	}
	q.buffers.Set(name, buf)
	return nil
}

func (q *Query) checkBuffer(name string, buf *AttributeBuffer) error {
	attr, ok := q.schema.Attribute(name)
	if !ok {
		return fmt.Errorf("%w: unknown attribute %q", ErrQuery, name)
	}
	if buf.ValuesSize == nil {
		return fmt.Errorf("%w: attribute %q: null buffer size", ErrNullBuffer, name)
	}
	if attr.IsVar() {
		if buf.OffsetsSize == nil {
			return fmt.Errorf("%w: attribute %q is var-sized and needs an offsets buffer", ErrNullBuffer, name)
		}
		return nil
	}
	if buf.IsVar() {
		return fmt.Errorf("%w: attribute %q is fixed-sized and takes no offsets buffer", ErrQuery, name)
	}
	return nil
}

// SetCallback registers fn to run when Process completes the query.
func (q *Query) SetCallback(fn func()) {
	q.callback = fn
}

// SetFragmentURI sets the location of the fragment a write creates. It
// does nothing for reads.
func (q *Query) SetFragmentURI(uri string) {
	if d, ok := q.exec.(writeDelegate); ok {
		d.path.SetFragmentURI(uri)
	}
}

// SetStatus overrides the query status.
func (q *Query) SetStatus(s QueryStatus) {
	q.status = s
}

// CopyBuffers absorbs the buffers of src, a query that ran elsewhere. For
// attributes this query already has a buffer for, sizes must match and the
// bytes are copied into the existing buffer; other buffers are adopted as
// they are. Nothing changes if any attribute fails validation. On success
// src no longer holds any buffer and must not be used for processing.
func (q *Query) CopyBuffers(src *Query) error {
	if src == nil {
		return q.fail(fmt.Errorf("%w: cannot copy buffers from nil query", ErrQuery))
	}
	for _, name := range src.buffers.Names() {
		buf, _ := src.buffers.Get(name)
		if err := q.checkBuffer(name, buf); err != nil {
			return q.fail(err)
		}
	}

	modes, err := q.buffers.Merge(src.buffers)
	if err != nil {
		return q.fail(err)
	}
	for name, mode := range modes {
		q.metrics.BufferMerged(string(mode))
		if mode != MergeAdopt {
			continue
		}
		buf, _ := q.buffers.Get(name)
		if err := q.exec.setters().SetBuffer(name, buf); err != nil {
			return q.fail(delegateErr("copy buffers", err))
		}
	}
	return nil
}

// CopyState makes q mirror src: layout, subarray and status are copied and
// the buffers of src are absorbed with CopyBuffers. Both queries must have
// the same type and domain datatype.
func (q *Query) CopyState(src *Query) error {
	if src == nil {
		return q.fail(fmt.Errorf("%w: cannot copy state from nil query", ErrQuery))
	}
	if src.typ != q.typ {
		return q.fail(fmt.Errorf("%w: cannot copy %s query state into %s query", ErrQuery, src.typ, q.typ))
	}
	if st, dt := src.schema.Domain().Type(), q.schema.Domain().Type(); st != dt {
		return q.fail(fmt.Errorf("%w: domain type %s does not match %s", ErrQuery, st, dt))
	}
	if err := q.SetLayout(src.layout); err != nil {
		return err
	}
	if err := q.SetSubarray(src.subarray); err != nil {
		return err
	}
	if err := q.CopyBuffers(src); err != nil {
		return err
	}
	q.status = src.status
	return nil
}

// Type returns the query type.
func (q *Query) Type() QueryType { return q.typ }

// Status returns the query status.
func (q *Query) Status() QueryStatus { return q.status }

// Layout returns the cell layout.
func (q *Query) Layout() Layout { return q.layout }

// Subarray returns a copy of the subarray, or nil for the whole domain.
func (q *Query) Subarray() []byte { return slices.Clone(q.subarray) }

// ArraySchema returns the schema the query runs against.
func (q *Query) ArraySchema() *ArraySchema { return q.schema }

// StorageManager returns the storage manager the query was created with.
func (q *Query) StorageManager() *StorageManager { return q.sm }

// Attributes returns the names of the attributes with buffers set.
func (q *Query) Attributes() []string { return q.buffers.Names() }

// AttributeBuffer returns the buffer set for name.
func (q *Query) AttributeBuffer(name string) (*AttributeBuffer, bool) {
	return q.buffers.Get(name)
}

// AttributeBuffers returns every buffer set on the query by attribute name.
func (q *Query) AttributeBuffers() map[string]*AttributeBuffer {
	out := make(map[string]*AttributeBuffer, q.buffers.Len())
	for _, name := range q.buffers.Names() {
		out[name], _ = q.buffers.Get(name)
	}
	return out
}

// FragmentMetadata returns the fragments a read consults. It is nil for
// writes.
func (q *Query) FragmentMetadata() []*FragmentMetadata { return q.frags }

// FragmentNum returns the number of fragments a read consults. It is zero
// for writes.
func (q *Query) FragmentNum() int {
	if d, ok := q.exec.(readDelegate); ok {
		return d.path.FragmentNum()
	}
	return 0
}

// FragmentURIs returns the fragments a read consults. It is empty for
// writes.
func (q *Query) FragmentURIs() []string {
	if d, ok := q.exec.(readDelegate); ok {
		return d.path.FragmentURIs()
	}
	return nil
}

// LastFragmentURI returns the newest fragment a read consults. It is empty
// for writes.
func (q *Query) LastFragmentURI() string {
	if d, ok := q.exec.(readDelegate); ok {
		return d.path.LastFragmentURI()
	}
	return ""
}

// HasResults reports whether an initialized read found data to return.
func (q *Query) HasResults() bool {
	if q.status == Uninitialized {
		return false
	}
	d, ok := q.exec.(readDelegate)
	return ok && !d.path.NoResults()
}
