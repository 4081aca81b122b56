// Package certinfo implements the HTTP handler for the certinfo command.
package certinfo

import (
	"net/http"

	"github.com/sigstore/rekor-search-ui/api"
	"github.com/sigstore/rekor-search-ui/certinfo"
	"github.com/sigstore/rekor-search-ui/log"
)

// Handler accepts a PEM or base64 DER certificate and returns its
// decoded display record.
type Handler struct {
	decoder *certinfo.Decoder
}

// NewHandler creates a certinfo handler decoding with d, or with a
// default decoder if d is nil.
func NewHandler(d *certinfo.Decoder) http.Handler {
	if d == nil {
		d = certinfo.NewDecoder()
	}
	return api.HTTPHandler{Handler: &Handler{decoder: d}, Methods: []string{"POST"}}
}

// Handle implements the api.Handler interface.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) (err error) {
	blob, _, err := api.ProcessRequestFirstMatchOf(r,
		[][]string{
			{"certificate"},
		})
	if err != nil {
		log.Warningf("invalid request: %v", err)
		return err
	}

	cert, err := h.decoder.Decode([]byte(blob["certificate"]))
	if err != nil {
		log.Warningf("bad certificate: %v", err)
		return err
	}

	return api.SendResponse(w, cert)
}
