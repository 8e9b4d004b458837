package filter

import "strings"

const (
	excludeMarker  = "-"
	relationMarker = "|"
	pathSeparator  = "."
)

// Bucket selects whether a filter includes or excludes matching rows
type Bucket int

const (
	// Include keeps rows matching the condition
	Include Bucket = iota
	// Exclude drops rows matching the condition
	Exclude
)

// String returns the string representation of the bucket
func (b Bucket) String() string {
	switch b {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "unknown"
	}
}

// Key is a lexed filter key
type Key struct {
	Raw      string
	Bucket   Bucket
	Relation []string // relation path used for tree placement; nil at top level
	Segments []string // field path, possibly ending in an operator
}

// ParseKey splits a raw key of the form
//
//	["-"] [relation.path "|"] field["." field]* ["." operator]
//
// A leading "-" selects Exclude; otherwise the key lands in def.
func ParseKey(raw string, def Bucket) (*Key, error) {
	key := &Key{Raw: raw, Bucket: def}

	rest := raw
	if strings.HasPrefix(rest, excludeMarker) {
		rest = rest[len(excludeMarker):]
		key.Bucket = Exclude
	}

	if strings.Contains(rest, relationMarker) {
		parts := strings.Split(rest, relationMarker)
		if len(parts) != 2 {
			return nil, newError(ErrMalformedKey, "Invalid filter key: only one %q relation separator is allowed", relationMarker)
		}
		relation, err := splitPath(parts[0])
		if err != nil {
			return nil, newError(ErrMalformedKey, "Invalid filter relation: %q", parts[0])
		}
		key.Relation = relation
		rest = parts[1]
	}

	segments, err := splitPath(rest)
	if err != nil {
		return nil, newError(ErrMalformedKey, "Invalid filter key: %q", raw)
	}
	key.Segments = segments

	return key, nil
}

// splitPath splits a dotted path, rejecting empty paths and empty segments
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrMalformedKey
	}
	segments := strings.Split(path, pathSeparator)
	for _, segment := range segments {
		if segment == "" {
			return nil, ErrMalformedKey
		}
	}
	return segments, nil
}
