package tiledb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/robert-malhotra/go-tiledb/internal/fragment"
	"github.com/robert-malhotra/go-tiledb/internal/metrics"
	"github.com/robert-malhotra/go-tiledb/internal/store"
)

// Store is the object store arrays live in.
type Store = store.Store

// StoreConfig selects and configures a Store backend.
type StoreConfig = store.Config

// NewStore opens the backend named by cfg.Backend: "memory", "local" or
// "minio".
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	return store.New(ctx, cfg)
}

// StorageManager owns the resources shared by the queries of a process:
// the object store, a worker pool for tile I/O and a decoded tile cache.
type StorageManager struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	pool    *ants.Pool
	tiles   *lru.Cache[string, []byte]
}

// NewStorageManager creates a storage manager over st. Close releases it.
func NewStorageManager(st Store, opts ...Option) (*StorageManager, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is nil", ErrStorage)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	sm := &StorageManager{
		store:   st,
		logger:  o.logger,
		metrics: metrics.New(o.registerer),
	}

	pool, err := ants.NewPool(o.workers, ants.WithPanicHandler(func(v any) {
		sm.logger.Error("tile worker panic", "panic", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: create worker pool: %w", ErrStorage, err)
	}
	sm.pool = pool

	if o.tileCacheSize > 0 {
		cache, err := lru.New[string, []byte](o.tileCacheSize)
		if err != nil {
			pool.Release()
			return nil, fmt.Errorf("%w: create tile cache: %w", ErrStorage, err)
		}
		sm.tiles = cache
	}
	return sm, nil
}

// Close releases the worker pool.
func (sm *StorageManager) Close() {
	sm.pool.Release()
}

// Store returns the underlying object store.
func (sm *StorageManager) Store() Store { return sm.store }

// Logger returns the logger.
func (sm *StorageManager) Logger() *slog.Logger { return sm.logger }

// CreateArray validates schema and stores it at uri. Unset tile extents
// are set to their dimension's whole range first.
func (sm *StorageManager) CreateArray(ctx context.Context, uri string, schema *ArraySchema) error {
	uri = path.Clean(uri)
	if err := schema.Check(); err != nil {
		sm.logger.Error("invalid array schema", "uri", uri, "error", err)
		return err
	}
	if _, err := sm.store.Get(ctx, fragment.SchemaKey(uri)); err == nil {
		return fmt.Errorf("%w: array %q already exists", ErrStorage, uri)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	schema = schema.clone()
	if err := schema.Domain().SetNullTileExtentsToRange(); err != nil {
		return err
	}
	schema.SetURI(uri)

	var buf bytes.Buffer
	if err := schema.Serialize(&buf); err != nil {
		return fmt.Errorf("%w: serialize schema: %w", ErrStorage, err)
	}
	if err := sm.store.Put(ctx, fragment.SchemaKey(uri), buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	sm.logger.Info("array created", "uri", uri, "dimensions", schema.Domain().DimNum(), "attributes", len(schema.Attributes()))
	return nil
}

// LoadArraySchema reads the schema of the array at uri.
func (sm *StorageManager) LoadArraySchema(ctx context.Context, uri string) (*ArraySchema, error) {
	uri = path.Clean(uri)
	data, err := sm.store.Get(ctx, fragment.SchemaKey(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: load schema of %q: %w", ErrStorage, uri, err)
	}
	schema, err := DeserializeArraySchema(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	schema.SetURI(uri)
	return schema, nil
}

// LoadFragmentMetadata reads the metadata of every committed fragment of
// the array at uri, oldest first. Metadata objects are fetched in parallel.
func (sm *StorageManager) LoadFragmentMetadata(ctx context.Context, uri string) ([]*FragmentMetadata, error) {
	uri = path.Clean(uri)
	keys, err := sm.store.List(ctx, uri+"/")
	if err != nil {
		return nil, fmt.Errorf("%w: list %q: %w", ErrStorage, uri, err)
	}
	uris := fragment.FragmentURIs(uri, keys)

	frags := make([]*FragmentMetadata, len(uris))
	tasks := make([]func() error, len(uris))
	for i, furi := range uris {
		i, furi := i, furi
		tasks[i] = func() error {
			data, err := sm.store.Get(ctx, fragment.MetadataKey(furi))
			if err != nil {
				return fmt.Errorf("%w: load fragment %q: %w", ErrStorage, furi, err)
			}
			m, err := fragment.Decode(data)
			if err != nil {
				return fmt.Errorf("%w: fragment %q: %w", ErrStorage, furi, err)
			}
			m.URI = furi
			frags[i] = m
			return nil
		}
	}
	if err := sm.run(tasks); err != nil {
		return nil, err
	}
	fragment.SortByTimestamp(frags)
	return frags, nil
}

// OpenArray loads the schema and fragments of the array at uri.
func (sm *StorageManager) OpenArray(ctx context.Context, uri string) (*Array, error) {
	schema, err := sm.LoadArraySchema(ctx, uri)
	if err != nil {
		return nil, err
	}
	frags, err := sm.LoadFragmentMetadata(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &Array{sm: sm, uri: schema.URI(), schema: schema, frags: frags}, nil
}

// run executes tasks on the worker pool and returns the first error.
func (sm *StorageManager) run(tasks []func() error) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := sm.pool.Submit(func() {
			defer wg.Done()
			if err := task(); err != nil {
				record(err)
			}
		})
		if err != nil {
			wg.Done()
			record(fmt.Errorf("%w: submit task: %w", ErrStorage, err))
		}
	}
	wg.Wait()
	return firstErr
}

func tileKey(fragURI, attr string, tile uint64) string {
	return fragment.DataKey(fragURI, attr) + "#" + strconv.FormatUint(tile, 10)
}

func (sm *StorageManager) cached(key string) ([]byte, bool) {
	if sm.tiles == nil {
		return nil, false
	}
	data, ok := sm.tiles.Get(key)
	sm.metrics.CacheLookup(ok)
	return data, ok
}

func (sm *StorageManager) cache(key string, data []byte) {
	if sm.tiles != nil {
		sm.tiles.Add(key, data)
	}
}

// loadTiles decodes tiles [first, last] of attribute attr of frag and
// returns them in order. Tiles already cached are not fetched again.
func (sm *StorageManager) loadTiles(ctx context.Context, frag *FragmentMetadata, attr *Attribute, first, last uint64) ([][]byte, error) {
	stored, ok := frag.Attribute(attr.Name)
	if !ok {
		return nil, fmt.Errorf("%w: fragment %q has no attribute %q", ErrStorage, frag.URI, attr.Name)
	}
	if last >= uint64(stored.TileNum()) || first > last {
		return nil, fmt.Errorf("%w: fragment %q attribute %q: tiles [%d, %d] out of range", ErrStorage, frag.URI, attr.Name, first, last)
	}

	out := make([][]byte, last-first+1)
	missing := false
	for t := first; t <= last; t++ {
		if data, ok := sm.cached(tileKey(frag.URI, attr.Name, t)); ok {
			out[t-first] = data
		} else {
			missing = true
		}
	}
	if !missing {
		return out, nil
	}

	object, err := sm.store.Get(ctx, fragment.DataKey(frag.URI, attr.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	elemSize := attr.Type.Size()
	if attr.IsVar() {
		elemSize = 8
	}
	pipeline, err := attr.pipeline(elemSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	for t := first; t <= last; t++ {
		if out[t-first] != nil {
			continue
		}
		lo, hi := stored.TileOffsets[t], stored.TileOffsets[t+1]
		if lo > hi || hi > uint64(len(object)) {
			return nil, fmt.Errorf("%w: fragment %q attribute %q: tile %d spans [%d, %d) of a %d byte object",
				ErrStorage, frag.URI, attr.Name, t, lo, hi, len(object))
		}
		data, err := pipeline.Decode(object[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("%w: fragment %q attribute %q tile %d: %w", ErrStorage, frag.URI, attr.Name, t, err)
		}
		sm.metrics.AddBytesRead(len(data))
		sm.cache(tileKey(frag.URI, attr.Name, t), data)
		out[t-first] = data
	}
	return out, nil
}

// loadVar decodes the var-sized values of attribute attr of frag.
func (sm *StorageManager) loadVar(ctx context.Context, frag *FragmentMetadata, attr *Attribute) ([]byte, error) {
	key := fragment.VarKey(frag.URI, attr.Name)
	if data, ok := sm.cached(key); ok {
		return data, nil
	}
	stored, ok := frag.Attribute(attr.Name)
	if !ok || !stored.Var {
		return nil, fmt.Errorf("%w: fragment %q has no var-sized attribute %q", ErrStorage, frag.URI, attr.Name)
	}
	object, err := sm.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	pipeline, err := attr.pipeline(attr.Type.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	data, err := pipeline.Decode(object)
	if err != nil {
		return nil, fmt.Errorf("%w: fragment %q attribute %q values: %w", ErrStorage, frag.URI, attr.Name, err)
	}
	if uint64(len(data)) != stored.VarSize {
		return nil, fmt.Errorf("%w: fragment %q attribute %q: %d value bytes, metadata says %d",
			ErrStorage, frag.URI, attr.Name, len(data), stored.VarSize)
	}
	sm.metrics.AddBytesRead(len(data))
	sm.cache(key, data)
	return data, nil
}

// Array is an opened array: its schema and the fragments committed when
// it was opened.
type Array struct {
	sm     *StorageManager
	uri    string
	schema *ArraySchema
	frags  []*FragmentMetadata
}

// URI returns the array location.
func (a *Array) URI() string { return a.uri }

// Schema returns the array schema.
func (a *Array) Schema() *ArraySchema { return a.schema }

// FragmentMetadata returns the fragments, oldest first.
func (a *Array) FragmentMetadata() []*FragmentMetadata { return a.frags }

// Reopen reloads the fragment list to pick up writes since the array was
// opened.
func (a *Array) Reopen(ctx context.Context) error {
	frags, err := a.sm.LoadFragmentMetadata(ctx, a.uri)
	if err != nil {
		return err
	}
	a.frags = frags
	return nil
}

// NewQuery creates a query on the array.
func (a *Array) NewQuery(typ QueryType, opts ...QueryOption) (*Query, error) {
	return NewQuery(a.sm, typ, a.schema, a.frags, opts...)
}

// fragmentName returns the last element of a fragment URI.
func fragmentName(uri string) string {
	return path.Base(strings.TrimSuffix(uri, "/"))
}
