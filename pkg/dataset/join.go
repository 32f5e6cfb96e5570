package dataset

import (
	"slices"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// entry is a join column value together with the row it came from
type entry struct {
	row   int
	value interface{}
}

// pair is one matched (target row, joined row)
type pair struct {
	target int
	joined int
}

// sortEntries returns the non-nil values of column with their row index,
// stable-sorted ascending. nil never matches anything.
func sortEntries(column []interface{}) []entry {
	entries := make([]entry, 0, len(column))
	for i, v := range column {
		if v == nil {
			continue
		}
		entries = append(entries, entry{row: i, value: v})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return value.Compare(a.value, b.value)
	})
	return entries
}

// matchSorted pairs every equal value across two sorted columns. Pairs come
// out in target order; a target value matching n joined rows yields n pairs.
func matchSorted(target, joined []entry) []pair {
	var pairs []pair
	lo := 0
	for _, t := range target {
		for lo < len(joined) && value.Compare(joined[lo].value, t.value) < 0 {
			lo++
		}
		for j := lo; j < len(joined) && value.Compare(joined[j].value, t.value) == 0; j++ {
			pairs = append(pairs, pair{target: t.row, joined: joined[j].row})
		}
	}
	return pairs
}

// merge inner-joins joined onto target where target[targetKey] equals
// joined[joinedKey]. Target columns come first, then the joined columns
// minus the joined side's join column. A joined key already present in
// target is an error.
func (p *derivation) merge(target, joined *frame, targetKey, joinedKey string) (*frame, error) {
	pairs := matchSorted(sortEntries(target.cols[targetKey]), sortEntries(joined.cols[joinedKey]))
	p.matches += len(pairs)

	out := &frame{
		keys: make([]string, 0, len(target.keys)+len(joined.keys)-1),
		cols: make(map[string][]interface{}, len(target.keys)+len(joined.keys)-1),
	}

	for _, k := range target.keys {
		src := target.cols[k]
		dst := make([]interface{}, len(pairs))
		for i, m := range pairs {
			dst[i] = src[m.target]
		}
		out.keys = append(out.keys, k)
		out.cols[k] = dst
	}

	for _, k := range joined.keys {
		if k == joinedKey {
			continue
		}
		if _, dup := out.cols[k]; dup {
			return nil, errors.Newf(errors.ErrorTypeInvalidDataset,
				"result key %s is produced by more than one table", k)
		}
		src := joined.cols[k]
		dst := make([]interface{}, len(pairs))
		for i, m := range pairs {
			dst[i] = src[m.joined]
		}
		out.keys = append(out.keys, k)
		out.cols[k] = dst
	}

	return out, nil
}
