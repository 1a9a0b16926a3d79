package tiledb

import (
	"context"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-tiledb/internal/datatype"
	"github.com/robert-malhotra/go-tiledb/internal/filter"
	"github.com/robert-malhotra/go-tiledb/internal/fragment"
	"github.com/robert-malhotra/go-tiledb/internal/store"
)

const testArrayURI = "arrays/test"

func newTestManager(t *testing.T, st Store, opts ...Option) (*StorageManager, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts = append([]Option{WithRegisterer(reg), WithWorkers(4)}, opts...)
	sm, err := NewStorageManager(st, opts...)
	require.NoError(t, err)
	t.Cleanup(sm.Close)
	return sm, reg
}

func createTestArray(t *testing.T, sm *StorageManager) *Array {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sm.CreateArray(ctx, testArrayURI, testSchema(t)))
	arr, err := sm.OpenArray(ctx, testArrayURI)
	require.NoError(t, err)
	return arr
}

// varCells packs strings into an offsets buffer and a values buffer.
func varCells(cells ...string) ([]uint64, []byte) {
	offsets := make([]uint64, len(cells))
	var values []byte
	for i, c := range cells {
		offsets[i] = uint64(len(values))
		values = append(values, c...)
	}
	return offsets, values
}

// unpackVar splits the values of a read back into cells.
func unpackVar(offsets []uint64, offsetsSize uint64, values []byte, valuesSize uint64) []string {
	n := offsetsSize / 8
	out := make([]string, n)
	for i := uint64(0); i < n; i++ {
		end := valuesSize
		if i+1 < n {
			end = offsets[i+1]
		}
		out[i] = string(values[offsets[i]:end])
	}
	return out
}

type writeArgs struct {
	layout   Layout
	subarray []byte
	fragURI  string
	a        []int32
	s        []string
}

func writeCells(t *testing.T, arr *Array, w writeArgs) *Writer {
	t.Helper()
	ctx := context.Background()
	writer := NewWriter(arr.sm)
	q, err := arr.NewQuery(Write, WithWritePath(writer))
	require.NoError(t, err)
	require.NoError(t, q.SetLayout(w.layout))
	require.NoError(t, q.SetSubarray(w.subarray))
	if w.fragURI != "" {
		q.SetFragmentURI(w.fragURI)
	}

	values := datatype.Encode(w.a...)
	size := uint64(len(values))
	require.NoError(t, q.SetBuffer("a", values, &size))
	offsets, svalues := varCells(w.s...)
	osize, ssize := uint64(len(offsets)*8), uint64(len(svalues))
	require.NoError(t, q.SetVarBuffer("s", offsets, &osize, svalues, &ssize))

	require.NoError(t, q.Init(ctx))
	require.NoError(t, q.Process(ctx))
	require.Equal(t, Completed, q.Status())
	require.NoError(t, q.Finalize(ctx))
	return writer
}

type readResult struct {
	a []int32
	s []string
}

func readCells(t *testing.T, arr *Array, l Layout, subarray []byte, cells int) readResult {
	t.Helper()
	ctx := context.Background()
	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	require.NoError(t, q.SetLayout(l))
	require.NoError(t, q.SetSubarray(subarray))

	values := make([]byte, cells*4)
	size := uint64(len(values))
	require.NoError(t, q.SetBuffer("a", values, &size))
	offsets := make([]uint64, cells)
	svalues := make([]byte, cells*16)
	osize, ssize := uint64(len(offsets)*8), uint64(len(svalues))
	require.NoError(t, q.SetVarBuffer("s", offsets, &osize, svalues, &ssize))

	require.NoError(t, q.Init(ctx))
	require.NoError(t, q.Process(ctx))
	require.Equal(t, Completed, q.Status())
	return readResult{
		a: datatype.DecodeSlice[int32](values[:size]),
		s: unpackVar(offsets, osize, svalues, ssize),
	}
}

// fullArray returns the row-major contents used by most tests: cell i holds
// i+1 in "a" and a string of i%3+1 copies of the letter 'a'+i in "s".
func fullArray() ([]int32, []string) {
	a := make([]int32, 16)
	s := make([]string, 16)
	for i := range a {
		a[i] = int32(i + 1)
		s[i] = strings.Repeat(string(rune('a'+i)), i%3+1)
	}
	return a, s
}

func TestCreateAndOpenArray(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())

	d := newDomain2D[int32](t, Int32, 1, 4, 1, 8)
	schema := NewArraySchema(d)
	require.NoError(t, schema.AddAttribute(NewAttribute("a", Int32)))
	require.NoError(t, sm.CreateArray(ctx, "arrays/./noextents", schema))

	arr, err := sm.OpenArray(ctx, "arrays/noextents")
	require.NoError(t, err)
	assert.Equal(t, "arrays/noextents", arr.URI())
	assert.Equal(t, "arrays/noextents", arr.Schema().URI())
	assert.Empty(t, arr.FragmentMetadata())
	assert.Equal(t, datatype.Encode[int32](8), arr.Schema().Domain().Dimension(1).TileExtent())
	assert.Nil(t, schema.Domain().Dimension(1).TileExtent(), "caller's schema must not change")

	err = sm.CreateArray(ctx, "arrays/noextents", schema)
	assert.ErrorIs(t, err, ErrStorage)

	err = sm.CreateArray(ctx, "arrays/bad", NewArraySchema(NewDomain(Int32)))
	assert.ErrorIs(t, err, ErrSchema)

	_, err = sm.OpenArray(ctx, "arrays/missing")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestNewStorageManagerNilStore(t *testing.T) {
	_, err := NewStorageManager(nil)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestWriteReadRowMajor(t *testing.T) {
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	a, s := fullArray()

	writer := writeCells(t, arr, writeArgs{layout: RowMajor, a: a, s: s})
	uri := writer.FragmentURI()
	assert.True(t, strings.HasPrefix(uri, testArrayURI+"/__"))
	_, _, err := fragment.ParseName(path.Base(uri))
	require.NoError(t, err)

	require.NoError(t, arr.Reopen(context.Background()))
	require.Len(t, arr.FragmentMetadata(), 1)

	got := readCells(t, arr, RowMajor, nil, 16)
	assert.Equal(t, a, got.a)
	assert.Equal(t, s, got.s)

	got = readCells(t, arr, RowMajor, Subarray[int32](2, 3, 2, 3), 4)
	assert.Equal(t, []int32{6, 7, 10, 11}, got.a)
	assert.Equal(t, []string{s[5], s[6], s[9], s[10]}, got.s)

	got = readCells(t, arr, ColMajor, Subarray[int32](1, 4, 1, 2), 8)
	assert.Equal(t, []int32{1, 5, 9, 13, 2, 6, 10, 14}, got.a)

	got = readCells(t, arr, GlobalOrder, nil, 16)
	assert.Equal(t, []int32{1, 2, 5, 6, 3, 4, 7, 8, 9, 10, 13, 14, 11, 12, 15, 16}, got.a)
}

func TestWriteColMajor(t *testing.T) {
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)

	writeCells(t, arr, writeArgs{
		layout:   ColMajor,
		subarray: Subarray[int32](1, 2, 1, 3),
		a:        []int32{10, 40, 20, 50, 30, 60},
		s:        []string{"x", "xxxx", "xx", "xxxxx", "xxx", "xxxxxx"},
	})
	require.NoError(t, arr.Reopen(context.Background()))

	got := readCells(t, arr, RowMajor, Subarray[int32](1, 2, 1, 3), 6)
	assert.Equal(t, []int32{10, 20, 30, 40, 50, 60}, got.a)
	assert.Equal(t, []string{"x", "xx", "xxx", "xxxx", "xxxxx", "xxxxxx"}, got.s)
}

func TestWriteGlobalOrderCommitsOnFinalize(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	a, s := fullArray()

	// Cells in 2x2 tile order.
	order := []int{0, 1, 4, 5, 2, 3, 6, 7, 8, 9, 12, 13, 10, 11, 14, 15}
	ga := make([]int32, 16)
	gs := make([]string, 16)
	for k, i := range order {
		ga[k], gs[k] = a[i], s[i]
	}

	writer := NewWriter(sm)
	q, err := arr.NewQuery(Write, WithWritePath(writer))
	require.NoError(t, err)
	require.NoError(t, q.SetLayout(GlobalOrder))
	values := datatype.Encode(ga...)
	size := uint64(len(values))
	require.NoError(t, q.SetBuffer("a", values, &size))
	offsets, svalues := varCells(gs...)
	osize, ssize := uint64(len(offsets)*8), uint64(len(svalues))
	require.NoError(t, q.SetVarBuffer("s", offsets, &osize, svalues, &ssize))
	require.NoError(t, q.Init(ctx))
	require.NoError(t, q.Process(ctx))

	frags, err := sm.LoadFragmentMetadata(ctx, testArrayURI)
	require.NoError(t, err)
	assert.Empty(t, frags, "fragment visible before finalize")
	assert.NotEmpty(t, writer.FragmentURI())

	require.NoError(t, q.Finalize(ctx))
	require.NoError(t, arr.Reopen(ctx))
	require.Len(t, arr.FragmentMetadata(), 1)
	assert.Equal(t, writer.FragmentURI(), arr.FragmentMetadata()[0].URI)

	got := readCells(t, arr, RowMajor, nil, 16)
	assert.Equal(t, a, got.a)
	assert.Equal(t, s, got.s)
}

func TestReadIncomplete(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	a, s := fullArray()
	writeCells(t, arr, writeArgs{layout: RowMajor, a: a, s: s})
	require.NoError(t, arr.Reopen(ctx))

	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	calls := 0
	q.SetCallback(func() { calls++ })

	values := make([]byte, 5*4)
	var size uint64
	require.NoError(t, q.SetBuffer("a", values, &size))
	require.NoError(t, q.Init(ctx))

	var got []int32
	for pass := 0; ; pass++ {
		require.Less(t, pass, 10)
		size = uint64(len(values))
		require.NoError(t, q.Process(ctx))
		got = append(got, datatype.DecodeSlice[int32](values[:size])...)
		if q.Status() == Completed {
			break
		}
		require.Equal(t, Incomplete, q.Status())
		assert.Equal(t, uint64(20), size)
		assert.Zero(t, calls)
	}
	assert.Equal(t, a, got)
	assert.Equal(t, uint64(4), size)
	assert.Equal(t, 1, calls)
}

func TestReadIncompleteVar(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	a, s := fullArray()
	writeCells(t, arr, writeArgs{layout: RowMajor, a: a, s: s})
	require.NoError(t, arr.Reopen(ctx))

	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	offsets := make([]uint64, 16)
	values := make([]byte, 6)
	var osize, vsize uint64
	require.NoError(t, q.SetVarBuffer("s", offsets, &osize, values, &vsize))
	require.NoError(t, q.Init(ctx))

	var got []string
	for pass := 0; q.Status() != Completed; pass++ {
		require.Less(t, pass, 20)
		osize, vsize = uint64(len(offsets)*8), uint64(len(values))
		require.NoError(t, q.Process(ctx))
		require.NotZero(t, osize, "no progress on pass %d", pass)
		got = append(got, unpackVar(offsets, osize, values, vsize)...)
	}
	assert.Equal(t, s, got)
}

func TestReadNewestFragmentWins(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	a, s := fullArray()

	// Fragments are named out of write order so the timestamps decide.
	newer := path.Join(testArrayURI, fragment.NewName(time.UnixMilli(2000)))
	older := path.Join(testArrayURI, fragment.NewName(time.UnixMilli(1000)))
	writeCells(t, arr, writeArgs{
		layout:   RowMajor,
		subarray: Subarray[int32](2, 3, 2, 3),
		fragURI:  newer,
		a:        []int32{100, 101, 102, 103},
		s:        []string{"P", "Q", "R", "S"},
	})
	writeCells(t, arr, writeArgs{layout: RowMajor, fragURI: older, a: a, s: s})
	require.NoError(t, arr.Reopen(ctx))

	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	assert.Equal(t, 2, q.FragmentNum())
	assert.Equal(t, []string{older, newer}, q.FragmentURIs())
	assert.Equal(t, newer, q.LastFragmentURI())

	got := readCells(t, arr, RowMajor, nil, 16)
	want := append([]int32(nil), a...)
	want[5], want[6], want[9], want[10] = 100, 101, 102, 103
	assert.Equal(t, want, got.a)
	wantS := append([]string(nil), s...)
	wantS[5], wantS[6], wantS[9], wantS[10] = "P", "Q", "R", "S"
	assert.Equal(t, wantS, got.s)
}

func TestReadFillsUnwrittenCells(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	writeCells(t, arr, writeArgs{
		layout:   RowMajor,
		subarray: Subarray[int32](1, 1, 1, 4),
		a:        []int32{1, 2, 3, 4},
		s:        []string{"a", "b", "c", "d"},
	})
	require.NoError(t, arr.Reopen(ctx))

	got := readCells(t, arr, RowMajor, Subarray[int32](1, 2, 3, 4), 4)
	assert.Equal(t, []int32{3, 4, 0, 0}, got.a)
	assert.Equal(t, []string{"c", "d", "\x00", "\x00"}, got.s)
}

func TestReadNoResults(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	writeCells(t, arr, writeArgs{
		layout:   RowMajor,
		subarray: Subarray[int32](1, 1, 1, 1),
		a:        []int32{7},
		s:        []string{"z"},
	})
	require.NoError(t, arr.Reopen(ctx))

	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	require.NoError(t, q.SetSubarray(Subarray[int32](3, 4, 3, 4)))
	values := make([]byte, 16)
	size := uint64(len(values))
	require.NoError(t, q.SetBuffer("a", values, &size))
	require.NoError(t, q.Init(ctx))
	assert.False(t, q.HasResults())
	require.NoError(t, q.Process(ctx))
	assert.Equal(t, Completed, q.Status())
	assert.Zero(t, size)

	require.NoError(t, q.SetSubarray(Subarray[int32](1, 1, 1, 2)))
	size = uint64(len(values))
	require.NoError(t, q.Init(ctx))
	assert.True(t, q.HasResults())
}

func TestWriteValidation(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)

	t.Run("missing attribute", func(t *testing.T) {
		q, err := arr.NewQuery(Write)
		require.NoError(t, err)
		size := uint64(64)
		require.NoError(t, q.SetBuffer("a", make([]byte, 64), &size))
		err = q.Init(ctx)
		assert.ErrorIs(t, err, ErrQuery)
		assert.Equal(t, Uninitialized, q.Status())
	})

	t.Run("short buffer", func(t *testing.T) {
		q, err := arr.NewQuery(Write)
		require.NoError(t, err)
		size := uint64(60)
		require.NoError(t, q.SetBuffer("a", make([]byte, 60), &size))
		offsets := make([]uint64, 16)
		values := []byte{0}
		osize, vsize := uint64(128), uint64(1)
		require.NoError(t, q.SetVarBuffer("s", offsets, &osize, values, &vsize))
		require.NoError(t, q.Init(ctx))
		err = q.Process(ctx)
		assert.ErrorIs(t, err, ErrBufferSizeMismatch)
		assert.Equal(t, Failed, q.Status())
	})

	t.Run("bad offsets", func(t *testing.T) {
		q, err := arr.NewQuery(Write)
		require.NoError(t, err)
		size := uint64(64)
		require.NoError(t, q.SetBuffer("a", make([]byte, 64), &size))
		offsets := make([]uint64, 16)
		offsets[0] = 1
		for i := 1; i < 16; i++ {
			offsets[i] = uint64(i + 1)
		}
		values := make([]byte, 32)
		osize, vsize := uint64(128), uint64(32)
		require.NoError(t, q.SetVarBuffer("s", offsets, &osize, values, &vsize))
		require.NoError(t, q.Init(ctx))
		assert.ErrorIs(t, q.Process(ctx), ErrInvalidOffsets)
	})

	require.NoError(t, arr.Reopen(ctx))
	assert.Empty(t, arr.FragmentMetadata())
}

func filterSchema(t *testing.T) *ArraySchema {
	t.Helper()
	x := NewDimension("x", Int64)
	require.NoError(t, x.SetDomain(datatype.Encode[int64](0, 99)))
	require.NoError(t, x.SetTileExtent(datatype.Encode[int64](10)))
	d := NewDomain(Int64)
	require.NoError(t, d.AddDimension(x))

	s := NewArraySchema(d)
	attrs := []*Attribute{
		{Name: "z", Type: Float64, CellValNum: 1, Filters: []FilterInfo{{ID: filter.Zstd, Level: 3}}},
		{Name: "g", Type: Int32, CellValNum: 2, Filters: []FilterInfo{{ID: filter.Gzip, Level: 6}}},
		{Name: "f", Type: Uint16, CellValNum: 1, Filters: []FilterInfo{{ID: filter.Shuffle}, {ID: filter.Fletcher32}}},
		{Name: "v", Type: Char, CellValNum: VarNum, Filters: []FilterInfo{{ID: filter.Zstd, Level: 1}, {ID: filter.Fletcher32}}},
	}
	for _, a := range attrs {
		require.NoError(t, s.AddAttribute(a))
	}
	return s
}

type filterData struct {
	z []float64
	g []int32
	f []uint16
	v []string
}

func writeFilterArray(t *testing.T, sm *StorageManager) filterData {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sm.CreateArray(ctx, "arrays/filtered", filterSchema(t)))
	arr, err := sm.OpenArray(ctx, "arrays/filtered")
	require.NoError(t, err)

	var in filterData
	for i := 0; i < 100; i++ {
		in.z = append(in.z, float64(i)*0.5)
		in.g = append(in.g, int32(i), int32(-i))
		in.f = append(in.f, uint16(i*7))
		in.v = append(in.v, strings.Repeat("v", i%5+1))
	}

	q, err := arr.NewQuery(Write)
	require.NoError(t, err)
	bufs := map[string][]byte{
		"z": datatype.Encode(in.z...),
		"g": datatype.Encode(in.g...),
		"f": datatype.Encode(in.f...),
	}
	for name, b := range bufs {
		size := uint64(len(b))
		require.NoError(t, q.SetBuffer(name, b, &size))
	}
	offsets, values := varCells(in.v...)
	osize, vsize := uint64(len(offsets)*8), uint64(len(values))
	require.NoError(t, q.SetVarBuffer("v", offsets, &osize, values, &vsize))
	require.NoError(t, q.Init(ctx))
	require.NoError(t, q.Process(ctx))
	return in
}

func TestFilteredRoundTrip(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t, store.NewMemoryStore())
	in := writeFilterArray(t, sm)

	arr, err := sm.OpenArray(ctx, "arrays/filtered")
	require.NoError(t, err)
	require.Len(t, arr.FragmentMetadata(), 1)
	assert.Equal(t, uint64(10), arr.FragmentMetadata()[0].TileCells)
	assert.Equal(t, uint64(10), arr.FragmentMetadata()[0].TileNum())

	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	require.NoError(t, q.SetSubarray(Subarray[int64](15, 64)))
	z := make([]byte, 50*8)
	g := make([]byte, 50*8)
	f := make([]byte, 50*2)
	zs, gs, fs := uint64(len(z)), uint64(len(g)), uint64(len(f))
	require.NoError(t, q.SetBuffer("z", z, &zs))
	require.NoError(t, q.SetBuffer("g", g, &gs))
	require.NoError(t, q.SetBuffer("f", f, &fs))
	offsets := make([]uint64, 50)
	values := make([]byte, 200)
	osize, vsize := uint64(400), uint64(200)
	require.NoError(t, q.SetVarBuffer("v", offsets, &osize, values, &vsize))
	require.NoError(t, q.Init(ctx))
	require.NoError(t, q.Process(ctx))
	require.Equal(t, Completed, q.Status())

	assert.Equal(t, in.z[15:65], datatype.DecodeSlice[float64](z[:zs]))
	assert.Equal(t, in.g[30:130], datatype.DecodeSlice[int32](g[:gs]))
	assert.Equal(t, in.f[15:65], datatype.DecodeSlice[uint16](f[:fs]))
	assert.Equal(t, in.v[15:65], unpackVar(offsets, osize, values, vsize))
}

func TestCorruptTileFailsRead(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	sm, _ := newTestManager(t, st)
	writeFilterArray(t, sm)

	arr, err := sm.OpenArray(ctx, "arrays/filtered")
	require.NoError(t, err)
	key := fragment.DataKey(arr.FragmentMetadata()[0].URI, "f")
	data, err := st.Get(ctx, key)
	require.NoError(t, err)
	data[0] ^= 0xff
	require.NoError(t, st.Put(ctx, key, data))

	q, err := arr.NewQuery(Read)
	require.NoError(t, err)
	require.NoError(t, q.SetSubarray(Subarray[int64](0, 9)))
	f := make([]byte, 20)
	size := uint64(len(f))
	require.NoError(t, q.SetBuffer("f", f, &size))

	err = q.Init(ctx)
	require.ErrorIs(t, err, filter.ErrChecksumMismatch)
	assert.ErrorIs(t, err, ErrStorage)
	var de *DelegateError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, Uninitialized, q.Status())
}

func TestLocalStoreRoundTrip(t *testing.T) {
	st, err := store.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	sm, _ := newTestManager(t, st, WithTileCacheSize(0))
	arr := createTestArray(t, sm)
	a, s := fullArray()
	writeCells(t, arr, writeArgs{layout: RowMajor, a: a, s: s})
	require.NoError(t, arr.Reopen(context.Background()))

	got := readCells(t, arr, RowMajor, nil, 16)
	assert.Equal(t, a, got.a)
	assert.Equal(t, s, got.s)
}

func TestStorageMetrics(t *testing.T) {
	sm, reg := newTestManager(t, store.NewMemoryStore())
	arr := createTestArray(t, sm)
	a, s := fullArray()
	writeCells(t, arr, writeArgs{layout: RowMajor, a: a, s: s})
	require.NoError(t, arr.Reopen(context.Background()))

	readCells(t, arr, RowMajor, nil, 16)
	readCells(t, arr, RowMajor, nil, 16)

	m := sm.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FragmentsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("write", "COMPLETED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("read", "COMPLETED")))
	assert.Positive(t, testutil.ToFloat64(m.BytesWritten))
	assert.Positive(t, testutil.ToFloat64(m.BytesRead))
	assert.Positive(t, testutil.ToFloat64(m.TileCacheHits))

	n, err := testutil.GatherAndCount(reg, "tiledb_fragments_written_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
