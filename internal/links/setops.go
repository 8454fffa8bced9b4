package links

import "sort"

// appendUnique appends v to an ordered list iff not already present.
func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// removeFromList returns list with v removed, preserving order. A list
// left empty comes back as nil.
func removeFromList(list []string, v string) []string {
	if list == nil {
		return nil
	}
	out := list[:0:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// cloneList returns a shallow copy of list.
func cloneList(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// setDiff returns elements of b not present in a (b - a), order of b preserved.
func setDiff(a, b []string) []string {
	present := make(map[string]struct{}, len(a))
	for _, x := range a {
		present[x] = struct{}{}
	}
	var out []string
	for _, x := range b {
		if _, ok := present[x]; !ok {
			out = append(out, x)
		}
	}
	return out
}

// sortedUnion returns the sorted, deduplicated union of a and b.
func sortedUnion(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, x := range a {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	for _, x := range b {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	sort.Strings(out)
	return out
}
