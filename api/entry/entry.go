// Package entry implements the HTTP handler that normalizes raw log
// entries supplied by the caller.
package entry

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sigstore/rekor-search-ui/api"
	"github.com/sigstore/rekor-search-ui/entry"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
)

// Request carries a log response exactly as the log returned it.
type Request struct {
	Entry json.RawMessage `json:"entry"`
}

// Result lists the decoded entries and those that failed.
type Result struct {
	Entries []*entry.Entry      `json:"entries"`
	Errors  []*entry.EntryError `json:"errors,omitempty"`
}

// Handler decodes raw entries.
type Handler struct {
	normalizer *entry.Normalizer
}

// NewHandler creates a decode handler using n, or a default normalizer if
// n is nil.
func NewHandler(n *entry.Normalizer) http.Handler {
	if n == nil {
		n = entry.NewNormalizer(nil, nil)
	}
	return api.HTTPHandler{Handler: &Handler{normalizer: n}, Methods: []string{"POST"}}
}

// Handle implements the api.Handler interface.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) error {
	var req Request
	if err := api.ReadRequestJSON(r, &req); err != nil {
		log.Warningf("invalid request: %v", err)
		return err
	}
	if len(req.Entry) == 0 {
		return rserr.NewBadRequestMissingParameter("entry")
	}

	le, err := entry.ParseLogEntry(req.Entry)
	if err != nil {
		return err
	}

	entries, errs := h.normalizer.NormalizeLogEntry(le)
	res := Result{Entries: entries, Errors: errs}
	if res.Entries == nil {
		res.Entries = []*entry.Entry{}
	}
	if len(errs) > 0 {
		return api.SendResponseWithMessage(w, res,
			fmt.Sprintf("%d of %d entries could not be decoded", len(errs), len(le)), http.StatusOK)
	}
	return api.SendResponse(w, res)
}
