package search

import "github.com/sigstore/rekor-search-ui/entry"

// View is a Result with every entry normalized for display.
type View struct {
	Query      Query               `json:"query"`
	Page       int                 `json:"page"`
	TotalCount int                 `json:"total_count"`
	Entries    []*entry.Entry      `json:"entries"`
	Errors     []*entry.EntryError `json:"errors,omitempty"`
}

// Normalize decodes the entries of res with n, keeping their order. An
// entry that fails to decode is listed in Errors and does not affect
// its siblings.
func Normalize(n *entry.Normalizer, res *Result) *View {
	v := &View{
		Query:      res.Query,
		Page:       res.Page,
		TotalCount: res.TotalCount,
		Entries:    []*entry.Entry{},
	}
	for _, le := range res.Entries {
		entries, errs := n.NormalizeLogEntry(le)
		v.Entries = append(v.Entries, entries...)
		v.Errors = append(v.Errors, errs...)
	}
	return v
}
