// Package tiledb implements the query layer of a dense multi-dimensional
// array store.
//
// An array is described by an [ArraySchema]: a [Domain] of integer
// [Dimension]s and the [Attribute]s stored in every cell. A
// [StorageManager] creates arrays in a [Store] and opens them:
//
//	sm, err := tiledb.NewStorageManager(st)
//	if err != nil {
//		return err
//	}
//	defer sm.Close()
//
//	arr, err := sm.OpenArray(ctx, "arrays/temps")
//	q, err := arr.NewQuery(tiledb.Read)
//	q.SetSubarray(tiledb.Subarray[int32](1, 10, 1, 10))
//	q.SetBuffer("t", buf, &size)
//	q.Init(ctx)
//	for {
//		q.Process(ctx)
//		// consume buf[:size]
//		if q.Status() != tiledb.Incomplete {
//			break
//		}
//	}
//
// # Query Lifecycle
//
// A [Query] starts UNINITIALIZED. Init prepares its read or write path and
// moves it to INPROGRESS. Process runs one unit of work: a write is
// COMPLETED after one call, a read is INCOMPLETE while results remain that
// did not fit in the buffers and COMPLETED once every cell has been
// returned. Cancel moves any query to FAILED; COMPLETED and FAILED queries
// reject further Process calls. Setting a new subarray returns the query to
// UNINITIALIZED.
//
// # Delegates
//
// The query validates and tracks state; the tile I/O is done by a
// [ReadPath] or [WritePath]. The defaults, [Reader] and [Writer], store
// each write as a fragment and resolve each read cell from the newest
// fragment that covers it. Custom paths are supplied with [WithReadPath]
// and [WithWritePath].
//
// # Values
//
// Domains, tile extents and subarrays are little-endian byte slices of the
// domain's [Datatype]. [Subarray] builds one from typed values.
//
// # Remote Execution
//
// A query executed elsewhere is shipped with [Query.MarshalJSON], decoded
// with [UnmarshalQuery] and absorbed with [Query.CopyState], which copies
// the state and merges the result buffers through [Query.CopyBuffers].
package tiledb
