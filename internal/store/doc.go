// Package store provides the object storage backends arrays live in.
//
// A [Store] is a flat key-value namespace with slash-separated keys, so the
// same array layout works on a local directory, in memory or in an
// S3-compatible bucket:
//
//   - [MemoryStore]: a map guarded by a mutex, for tests and scratch arrays.
//   - [LocalStore]: one file per key under a base directory. Put writes a
//     temporary file and renames it, so a reader never sees a partial object.
//   - [MinIOStore]: one object per key in a bucket, via
//     github.com/minio/minio-go/v7.
//
// Use [New] to open the backend selected by configuration:
//
//	s, err := store.New(ctx, store.Config{Backend: "local", Path: "/data/arrays"})
//
// Missing keys are reported as [ErrNotFound] by every backend.
package store
