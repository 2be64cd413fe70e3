package script

import "sort"

// SortIDsByTimestamp returns ids reordered so that the referenced actions'
// timestamps ascend. The sort is stable: ties keep their input order. Ids
// that do not resolve in pool keep their original positions; only the
// resolvable ids sort around them.
func SortIDsByTimestamp(pool map[string]Action, ids []string) []string {
	known := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := pool[id]; ok {
			known = append(known, id)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		return pool[known[i]].Timestamp < pool[known[j]].Timestamp
	})

	out := make([]string, len(ids))
	k := 0
	for i, id := range ids {
		if _, ok := pool[id]; ok {
			out[i] = known[k]
			k++
		} else {
			out[i] = id
		}
	}
	return out
}

// IDsAscending reports whether the resolvable ids reference non-decreasing
// timestamps in their current order.
func IDsAscending(pool map[string]Action, ids []string) bool {
	prev := 0.0
	first := true
	for _, id := range ids {
		a, ok := pool[id]
		if !ok {
			continue
		}
		if !first && a.Timestamp < prev {
			return false
		}
		prev = a.Timestamp
		first = false
	}
	return true
}
