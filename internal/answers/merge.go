package answers

// Merge applies patch over existing and returns a new document. Groups and
// fields missing from patch are kept; present ones are replaced, recursing
// into object and array values the way a recursive array replace does.
// Neither input is modified.
func Merge(existing, patch *Nested) *Nested {
	out := existing.Clone()
	patch.Range(func(gid, fid string, v any) bool {
		g := out.Group(gid)
		if prev, ok := g.Get(fid); ok {
			g.Set(fid, mergeValue(prev, v))
		} else {
			g.Set(fid, v)
		}
		return true
	})
	// Groups present in patch with no answers still exist afterwards.
	for _, gid := range patch.GroupIDs() {
		out.Group(gid)
	}
	return out
}

func mergeValue(prev, next any) any {
	switch n := next.(type) {
	case map[string]any:
		p, ok := prev.(map[string]any)
		if !ok {
			return n
		}
		out := make(map[string]any, len(p)+len(n))
		for k, v := range p {
			out[k] = v
		}
		for k, v := range n {
			if pv, ok := out[k]; ok {
				out[k] = mergeValue(pv, v)
			} else {
				out[k] = v
			}
		}
		return out
	case []any:
		p, ok := prev.([]any)
		if !ok {
			return n
		}
		size := len(p)
		if len(n) > size {
			size = len(n)
		}
		out := make([]any, size)
		copy(out, p)
		for i, v := range n {
			if i < len(p) {
				out[i] = mergeValue(p[i], v)
			} else {
				out[i] = v
			}
		}
		return out
	default:
		return next
	}
}
