package entry

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jmhodges/clock"

	"github.com/sigstore/rekor-search-ui/certinfo"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/helpers"
	"github.com/sigstore/rekor-search-ui/log"
)

// CertificateDecoder turns PEM or DER certificate bytes into a display
// record. *certinfo.Decoder satisfies it.
type CertificateDecoder interface {
	Decode(raw []byte) (*certinfo.Certificate, error)
}

// Entry is a normalized log entry.
type Entry struct {
	UUID           string          `json:"uuid"`
	LogID          string          `json:"log_id"`
	LogIndex       int64           `json:"log_index"`
	IntegratedTime int64           `json:"integrated_time"`
	IntegratedAt   string          `json:"integrated_at,omitempty"`
	Body           Body            `json:"body"`
	DecodedBody    interface{}     `json:"decoded_body,omitempty"`
	Attestation    interface{}     `json:"attestation,omitempty"`
	Viewer         *Viewer         `json:"viewer,omitempty"`
	Verification   json.RawMessage `json:"verification,omitempty"`
}

// EntryError records why one entry of a response could not be normalized.
type EntryError struct {
	UUID    string `json:"uuid"`
	Message string `json:"message"`
	err     error
}

func (e *EntryError) Error() string {
	return e.UUID + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e *EntryError) Unwrap() error {
	return e.err
}

// An Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock integrated times are rendered against.
func WithClock(clk clock.Clock) Option {
	return func(n *Normalizer) { n.clk = clk }
}

// Normalizer decodes raw entries. It holds no per-entry state and is safe
// for concurrent use.
type Normalizer struct {
	codec helpers.Base64Codec
	certs CertificateDecoder
	clk   clock.Clock
}

// NewNormalizer returns a Normalizer. A nil codec means helpers.StdCodec;
// a nil certs means a default certinfo.Decoder.
func NewNormalizer(codec helpers.Base64Codec, certs CertificateDecoder, opts ...Option) *Normalizer {
	n := &Normalizer{codec: codec, certs: certs, clk: clock.Default()}
	for _, opt := range opts {
		opt(n)
	}
	if n.codec == nil {
		n.codec = helpers.StdCodec{}
	}
	if n.certs == nil {
		n.certs = certinfo.NewDecoder(certinfo.WithClock(n.clk))
	}
	return n
}

// Normalize decodes one entry. Only a body that does not decode, does not
// parse, or has no kind is an error; attestation and viewer problems are
// logged and leave those fields empty or raw.
func (n *Normalizer) Normalize(uuid string, raw RawLogEntry) (*Entry, error) {
	bodyJSON, err := n.codec.DecodeString(raw.Body)
	if err != nil {
		return nil, rserr.Wrap(rserr.DecodeError, rserr.DecodeFailed, err)
	}
	var body Body
	if err := json.Unmarshal(bodyJSON, &body); err != nil {
		return nil, rserr.Wrap(rserr.DecodeError, rserr.ParseFailed, err)
	}
	if body.Kind == "" {
		return nil, rserr.Wrap(rserr.DecodeError, rserr.ParseFailed, errors.New("entry body has no kind"))
	}

	e := &Entry{
		UUID:           uuid,
		LogID:          raw.LogID,
		LogIndex:       raw.LogIndex,
		IntegratedTime: raw.IntegratedTime,
		Body:           body,
		DecodedBody:    n.decodedBody(bodyJSON),
		Verification:   raw.Verification,
	}
	if raw.IntegratedTime > 0 {
		e.IntegratedAt = helpers.RelativeDateString(n.clk, time.Unix(raw.IntegratedTime, 0))
	}
	if raw.Attestation != nil && raw.Attestation.Data != "" {
		e.Attestation = n.attestation(uuid, raw.Attestation.Data)
	}

	kind := Classify(body)
	if kind == KindUnknown {
		log.Debugf("entry %s: no viewer for kind %q", uuid, body.Kind)
		return e, nil
	}
	x, err := extract(kind, body.Spec)
	if err != nil {
		log.Warningf("entry %s: %s spec not understood: %v", uuid, kind, err)
		return e, nil
	}
	e.Viewer = n.viewer(kind, x)
	return e, nil
}

// attestation unwraps up to DefaultUnwrapDepth base64 layers and parses
// the result as JSON, keeping the unwrapped text when it is not JSON.
func (n *Normalizer) attestation(uuid, data string) interface{} {
	unwrapped := helpers.Unwrap(n.codec, data, helpers.DefaultUnwrapDepth)
	var v interface{}
	if err := json.Unmarshal([]byte(unwrapped), &v); err != nil {
		log.Debugf("entry %s: %v", uuid, rserr.Wrap(rserr.AttestationError, rserr.ParseFailed, err))
		return unwrapped
	}
	return v
}

// decodedBody returns the body with every base64 string leaf replaced by
// its decoded form: parsed JSON if it parses, otherwise the text. Leaves
// that do not decode to printable text are kept as they are.
func (n *Normalizer) decodedBody(bodyJSON []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(bodyJSON, &v); err != nil {
		return nil
	}
	return n.decodeLeaves(v, helpers.DefaultUnwrapDepth)
}

func (n *Normalizer) decodeLeaves(v interface{}, depth int) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			t[k] = n.decodeLeaves(child, depth)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = n.decodeLeaves(child, depth)
		}
		return t
	case string:
		if depth <= 0 || !n.codec.IsBase64(t) {
			return t
		}
		b, err := n.codec.DecodeString(t)
		if err != nil || !printable(b) {
			return t
		}
		var parsed interface{}
		if err := json.Unmarshal(b, &parsed); err == nil {
			return n.decodeLeaves(parsed, depth-1)
		}
		return string(b)
	}
	return v
}

func printable(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func (n *Normalizer) viewer(kind Kind, x *extracted) *Viewer {
	v := &Viewer{
		Kind:          kind,
		Hash:          x.hash,
		Signature:     x.signature,
		SignatureNote: x.signatureNote,
	}
	if x.decodeSignature {
		v.Signature = helpers.Decode(n.codec, x.signature)
	}
	if x.publicKey != "" {
		v.PublicKey = n.publicKey(x.publicKey)
	}
	return v
}

// publicKey decodes key material. Text carrying a PEM certificate marker
// goes through the certificate decoder; if that fails the text is shown
// as a plain public key.
func (n *Normalizer) publicKey(encoded string) *PublicKey {
	text := helpers.Decode(n.codec, encoded)
	pk := &PublicKey{Title: TitlePublicKey, Content: text}
	if !strings.Contains(text, helpers.PEMCertificateMarker) {
		return pk
	}
	cert, err := n.certs.Decode([]byte(text))
	if err != nil {
		log.Debugf("public key certificate not decoded: %v", err)
		return pk
	}
	pk.Title = TitlePublicKeyCertificate
	pk.Certificate = cert
	return pk
}

// NormalizeLogEntry normalizes every entry of le in UUID order. Entries
// that fail are reported in the error list without affecting the rest.
func (n *Normalizer) NormalizeLogEntry(le LogEntry) ([]*Entry, []*EntryError) {
	uuids := make([]string, 0, len(le))
	for uuid := range le {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)

	var (
		entries []*Entry
		errs    []*EntryError
	)
	for _, uuid := range uuids {
		e, err := n.Normalize(uuid, le[uuid])
		if err != nil {
			errs = append(errs, NewEntryError(uuid, err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

// NewEntryError attributes err to the entry uuid.
func NewEntryError(uuid string, err error) *EntryError {
	msg := err.Error()
	var coded *rserr.Error
	if errors.As(err, &coded) {
		msg = coded.Message
	}
	return &EntryError{UUID: uuid, Message: msg, err: err}
}
