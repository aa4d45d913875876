package genodata

import "sort"

// IntersectNamed narrows active to the entries named in keys. Names that do
// not resolve are ignored. The result is in ascending index order.
func IntersectNamed[I ~int, K comparable](active []I, keys []K, lookup func(K) (I, bool)) []I {
	wanted := make(map[I]struct{}, len(keys))
	for _, k := range keys {
		if i, ok := lookup(k); ok {
			wanted[i] = struct{}{}
		}
	}

	return retain(active, func(i I) bool {
		_, ok := wanted[i]
		return ok
	})
}

// SubtractNamed drops the entries named in keys from active. Names that do
// not resolve are ignored. The result is in ascending index order.
func SubtractNamed[I ~int, K comparable](active []I, keys []K, lookup func(K) (I, bool)) []I {
	unwanted := make(map[I]struct{}, len(keys))
	for _, k := range keys {
		if i, ok := lookup(k); ok {
			unwanted[i] = struct{}{}
		}
	}

	return retain(active, func(i I) bool {
		_, ok := unwanted[i]
		return !ok
	})
}

// retain returns a new sorted slice of the entries of active for which keep
// is true.
func retain[I ~int](active []I, keep func(I) bool) []I {
	out := make([]I, 0, len(active))
	for _, i := range active {
		if keep(i) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })

	return out
}
