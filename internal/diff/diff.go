// Package diff computes the delta between two versions of a record set.
package diff

import "LottoSentinel/internal/model"

// Detect classifies every record of next against prev.
// Keys only in next are added, keys only in prev are removed, and keys in
// both whose content differs according to policy.Equal are updated.
// Duplicate keys inside one side are collapsed, last one wins.
func Detect[T any](prev, next []T, policy model.Policy[T]) model.ChangeSet[T] {
	prevIdx, prevOrder := index(prev, policy.Key)
	nextIdx, nextOrder := index(next, policy.Key)

	var cs model.ChangeSet[T]
	for _, key := range nextOrder {
		cur := nextIdx[key]
		old, ok := prevIdx[key]
		if !ok {
			cs.Added = append(cs.Added, cur)
			continue
		}
		if !policy.Equal(old, cur) {
			cs.Updated = append(cs.Updated, model.Update[T]{Key: key, Old: old, New: cur})
		}
	}
	for _, key := range prevOrder {
		if _, ok := nextIdx[key]; !ok {
			cs.Removed = append(cs.Removed, prevIdx[key])
		}
	}
	return cs
}

// Dedupe returns records with one entry per key, keeping the position of the
// first occurrence and the value of the last.
func Dedupe[T any](records []T, key func(T) string) []T {
	idx, order := index(records, key)
	if len(order) == len(records) {
		return records
	}
	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, idx[k])
	}
	return out
}

func index[T any](records []T, key func(T) string) (map[string]T, []string) {
	idx := make(map[string]T, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		k := key(r)
		if _, seen := idx[k]; !seen {
			order = append(order, k)
		}
		idx[k] = r
	}
	return idx, order
}
