package fragment

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaFile is the name of the array schema object under an array URI.
	SchemaFile = "__array_schema.tdb"
	// MetadataFile is the name of the metadata object of a fragment. A
	// fragment is committed once this object exists.
	MetadataFile = "__fragment_metadata.tdb"

	dataSuffix = ".tdb"
	varSuffix  = "_var.tdb"
)

// ErrInvalidName is returned for fragment names that do not follow the
// __<uuid>_<timestamp> convention.
var ErrInvalidName = errors.New("invalid fragment name")

// NewName returns a fresh fragment directory name stamped with t.
func NewName(t time.Time) string {
	return fmt.Sprintf("__%s_%d", uuid.NewString(), t.UnixMilli())
}

// ParseName splits a fragment name into its uuid and millisecond timestamp.
func ParseName(name string) (uuid.UUID, int64, error) {
	rest, ok := strings.CutPrefix(name, "__")
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	i := strings.LastIndexByte(rest, '_')
	if i < 0 {
		return uuid.Nil, 0, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	id, err := uuid.Parse(rest[:i])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: %q: %w", ErrInvalidName, name, err)
	}
	ts, err := strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: %q: %w", ErrInvalidName, name, err)
	}
	return id, ts, nil
}

// SchemaKey returns the key of the schema object of an array.
func SchemaKey(arrayURI string) string {
	return path.Join(arrayURI, SchemaFile)
}

// MetadataKey returns the key of the metadata object of a fragment.
func MetadataKey(fragmentURI string) string {
	return path.Join(fragmentURI, MetadataFile)
}

// DataKey returns the key of the fixed-size tiles of an attribute. For
// var-sized attributes these are the cell offsets.
func DataKey(fragmentURI, attr string) string {
	return path.Join(fragmentURI, attr+dataSuffix)
}

// VarKey returns the key of the var-sized values of an attribute.
func VarKey(fragmentURI, attr string) string {
	return path.Join(fragmentURI, attr+varSuffix)
}

// FragmentURIs picks the committed fragments of arrayURI out of a key
// listing, sorted by name.
func FragmentURIs(arrayURI string, keys []string) []string {
	var uris []string
	for _, k := range keys {
		dir, file := path.Split(k)
		if file != MetadataFile {
			continue
		}
		dir = strings.TrimSuffix(dir, "/")
		if path.Dir(dir) != path.Clean(arrayURI) {
			continue
		}
		if _, _, err := ParseName(path.Base(dir)); err != nil {
			continue
		}
		uris = append(uris, dir)
	}
	slices.Sort(uris)
	return uris
}

// SortByTimestamp orders fragments oldest first. Fragments written in the
// same millisecond are ordered by name.
func SortByTimestamp(frags []*Metadata) {
	slices.SortStableFunc(frags, func(a, b *Metadata) int {
		if a.Timestamp != b.Timestamp {
			if a.Timestamp < b.Timestamp {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}
