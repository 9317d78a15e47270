package resolve

import "strings"

// segment is one hop of a parsed path: a map key, optionally followed by
// one or more array subscripts (e.g. "y[0][1]" parses to key "y" with
// indices [0, 1]).
type segment struct {
	key     string
	indices []int
}

// parsePath splits a dotted path into segments, extracting any [int]
// subscripts trailing each key. It does not use regexp: paths are simple
// enough for a hand-rolled scanner, and the grammar is fixed (§4.B).
func parsePath(path string) []segment {
	parts := strings.Split(path, ".")
	segments := make([]segment, 0, len(parts))

	for _, part := range parts {
		segments = append(segments, parseSegment(part))
	}

	return segments
}

func parseSegment(part string) segment {
	br := strings.IndexByte(part, '[')
	if br < 0 {
		return segment{key: part}
	}

	seg := segment{key: part[:br]}
	rest := part[br:]

	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}

		idx := 0
		neg := false
		for i := 1; i < end; i++ {
			c := rest[i]
			if c == '-' && i == 1 {
				neg = true

				continue
			}
			if c < '0' || c > '9' {
				idx = -1

				break
			}
			idx = idx*10 + int(c-'0')
		}

		if idx >= 0 {
			if neg {
				idx = -idx
			}
			seg.indices = append(seg.indices, idx)
		}

		rest = rest[end+1:]
	}

	return seg
}

// lookup navigates ctx following segments, returning the resolved value
// and whether every segment resolved successfully.
func lookup(ctx any, segments []segment) (any, bool) {
	cur := ctx

	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		v, exists := m[seg.key]
		if !exists {
			return nil, false
		}

		cur = v

		for _, idx := range seg.indices {
			arr, ok := cur.([]any)
			if !ok {
				return nil, false
			}

			if idx < 0 {
				idx += len(arr)
			}
			if idx < 0 || idx >= len(arr) {
				return nil, false
			}

			cur = arr[idx]
		}
	}

	return cur, true
}
