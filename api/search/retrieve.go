package search

import (
	"net/http"

	"github.com/sigstore/rekor-search-ui/api"
	"github.com/sigstore/rekor-search-ui/entry"
	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/rekor"
	"github.com/sigstore/rekor-search-ui/search"
)

// RetrieveRequest names entries by UUID, by log index, or both.
type RetrieveRequest = rekor.SearchLogQuery

// RetrieveResult lists the decoded entries of a log query and those that
// failed to decode.
type RetrieveResult struct {
	Entries []*entry.Entry      `json:"entries"`
	Errors  []*entry.EntryError `json:"errors,omitempty"`
}

// RetrieveHandler fetches several entries in one log query.
type RetrieveHandler struct {
	retriever  *search.Retriever
	normalizer *entry.Normalizer
}

// NewRetrieveHandler creates a log query handler over r, decoding entries
// with n or with a default normalizer if n is nil.
func NewRetrieveHandler(r *search.Retriever, n *entry.Normalizer) http.Handler {
	if n == nil {
		n = entry.NewNormalizer(nil, nil)
	}
	return api.HTTPHandler{
		Handler: &RetrieveHandler{retriever: r, normalizer: n},
		Methods: []string{"POST"},
	}
}

// Handle implements the api.Handler interface.
func (h *RetrieveHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	var req RetrieveRequest
	if err := api.ReadRequestJSON(r, &req); err != nil {
		log.Warningf("invalid request: %v", err)
		return err
	}
	if len(req.EntryUUIDs) == 0 && len(req.LogIndexes) == 0 {
		return api.MissingParamsError([]string{"entryUUIDs", "logIndexes"})
	}

	les, err := h.retriever.RetrieveLogQuery(r.Context(), req)
	if err != nil {
		log.Warningf("log query failed: %v", err)
		return err
	}

	res := RetrieveResult{Entries: []*entry.Entry{}}
	for _, le := range les {
		entries, errs := h.normalizer.NormalizeLogEntry(le)
		res.Entries = append(res.Entries, entries...)
		res.Errors = append(res.Errors, errs...)
	}
	return api.SendResponse(w, res)
}
