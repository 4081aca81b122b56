// Package search implements the HTTP handler for transparency log searches.
package search

import (
	"errors"
	"net/http"

	"github.com/sigstore/rekor-search-ui/api"
	"github.com/sigstore/rekor-search-ui/entry"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/search"
)

// Request is the body of a search request. Requests naming the same
// Session supersede each other: a newer one cancels the one in flight,
// which then fails with 409.
type Request struct {
	Attribute string `json:"attribute"`
	Query     string `json:"query"`
	Page      int    `json:"page"`
	Session   string `json:"session,omitempty"`
}

// Handler runs searches and returns the normalized entries of one page.
type Handler struct {
	retriever  *search.Retriever
	normalizer *entry.Normalizer
	sessions   *search.Sessions
}

// NewHandler creates a search handler over r, decoding entries with n or
// with a default normalizer if n is nil.
func NewHandler(r *search.Retriever, n *entry.Normalizer) http.Handler {
	if n == nil {
		n = entry.NewNormalizer(nil, nil)
	}
	return api.HTTPHandler{
		Handler: &Handler{
			retriever:  r,
			normalizer: n,
			sessions:   search.NewSessions(r, search.DefaultMaxSessions),
		},
		Methods: []string{"POST"},
	}
}

// Handle implements the api.Handler interface.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) error {
	var req Request
	if err := api.ReadRequestJSON(r, &req); err != nil {
		log.Warningf("invalid request: %v", err)
		return err
	}

	var missing []string
	if req.Attribute == "" {
		missing = append(missing, "attribute")
	}
	if req.Query == "" {
		missing = append(missing, "query")
	}
	if len(missing) > 0 {
		return api.MissingParamsError(missing)
	}

	q, err := search.ParseQuery(req.Attribute, req.Query)
	if err != nil {
		log.Warningf("invalid query: %v", err)
		return err
	}

	var res *search.Result
	if req.Session != "" {
		res, err = h.sessions.Get(req.Session).Search(r.Context(), q, req.Page)
	} else {
		res, err = h.retriever.Retrieve(r.Context(), q, req.Page)
	}
	if errors.Is(err, search.ErrSuperseded) {
		return rserr.NewConflict(err)
	}
	if err != nil {
		log.Warningf("search %s failed: %v", q.Attribute, err)
		return err
	}

	return api.SendResponse(w, search.Normalize(h.normalizer, res))
}
