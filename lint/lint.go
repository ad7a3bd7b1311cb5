// Package lint checks that every key exists in every language catalog.
package lint

import (
	"sort"

	"github.com/minios-linux/lemontree/catalog"
)

// Source is the catalog of one language.
type Source struct {
	Lang string
	Path string
}

// KeyStatus lists where a key exists.
type KeyStatus struct {
	Key     string
	Present []string
	Missing []string
}

// Report is the result of Run.
type Report struct {
	// Problems lists keys missing in at least one language, sorted by key.
	Problems []KeyStatus
	// FilesWithProblems counts languages missing at least one key.
	FilesWithProblems int
	TotalFiles        int
	TotalKeys         int
}

// OK reports whether no key is missing anywhere.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

// CorrectKeys is the number of keys present in every language.
func (r *Report) CorrectKeys() int { return r.TotalKeys - len(r.Problems) }

// Run loads every catalog and builds the key presence index.
func Run(sources []Source) (*Report, error) {
	presence := make(map[string]map[string]bool)
	for _, src := range sources {
		cat, err := catalog.Load(src.Path)
		if err != nil {
			return nil, err
		}
		for _, key := range cat.Keys() {
			if presence[key] == nil {
				presence[key] = make(map[string]bool)
			}
			presence[key][src.Lang] = true
		}
	}

	keys := make([]string, 0, len(presence))
	for k := range presence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := &Report{TotalFiles: len(sources), TotalKeys: len(keys)}
	incomplete := make(map[string]bool)
	for _, key := range keys {
		st := KeyStatus{Key: key}
		for _, src := range sources {
			if presence[key][src.Lang] {
				st.Present = append(st.Present, src.Lang)
			} else {
				st.Missing = append(st.Missing, src.Lang)
				incomplete[src.Lang] = true
			}
		}
		if len(st.Missing) == 0 {
			continue
		}
		sort.Strings(st.Present)
		sort.Strings(st.Missing)
		r.Problems = append(r.Problems, st)
	}
	r.FilesWithProblems = len(incomplete)
	return r, nil
}
