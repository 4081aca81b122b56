// Package entry decodes transparency log entries into uniform display
// records.
package entry

import (
	"encoding/json"

	rserr "github.com/sigstore/rekor-search-ui/errors"
)

// LogEntry is a log response: entry UUID to raw entry.
type LogEntry map[string]RawLogEntry

// RawLogEntry is one entry as returned by the log.
type RawLogEntry struct {
	Attestation    *Attestation    `json:"attestation,omitempty"`
	Body           string          `json:"body"`
	IntegratedTime int64           `json:"integratedTime"`
	LogID          string          `json:"logID"`
	LogIndex       int64           `json:"logIndex"`
	Verification   json.RawMessage `json:"verification,omitempty"`
}

// Attestation carries an optional, possibly repeatedly base64-encoded
// payload.
type Attestation struct {
	Data string `json:"data,omitempty"`
}

// Body is the decoded entry body.
type Body struct {
	Kind       string          `json:"kind"`
	APIVersion string          `json:"apiVersion"`
	Spec       json.RawMessage `json:"spec"`
}

// ParseLogEntry parses a JSON log response.
func ParseLogEntry(data []byte) (LogEntry, error) {
	var le LogEntry
	if err := json.Unmarshal(data, &le); err != nil {
		return nil, rserr.Wrap(rserr.DecodeError, rserr.ParseFailed, err)
	}
	return le, nil
}

// Kind is the closed set of entry kinds with a specialised viewer.
type Kind int

// Entry kinds. KindUnknown covers every kind without a viewer, such as
// alpine, helm, jar, rekord, rfc3161, rpm and tuf.
const (
	KindUnknown Kind = iota
	KindHashedRekord
	KindIntotoV001
	KindIntotoV002
	KindDSSE
)

var kindNames = [...]string{
	KindUnknown:      "unknown",
	KindHashedRekord: "hashedrekord",
	KindIntotoV001:   "intoto/v0.0.1",
	KindIntotoV002:   "intoto/v0.0.2",
	KindDSSE:         "dsse",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognised names
// decode as KindUnknown.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = KindUnknown
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			break
		}
	}
	return nil
}

// Classify selects the viewer kind for body. The intoto schema version is
// taken from apiVersion; other versions fall back to the shape of the
// spec, an envelope meaning v0.0.2.
func Classify(body Body) Kind {
	switch body.Kind {
	case "hashedrekord":
		return KindHashedRekord
	case "dsse":
		return KindDSSE
	case "intoto":
		switch body.APIVersion {
		case "0.0.1":
			return KindIntotoV001
		case "0.0.2":
			return KindIntotoV002
		}
		var probe struct {
			Content struct {
				Envelope json.RawMessage `json:"envelope"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body.Spec, &probe); err == nil && len(probe.Content.Envelope) > 0 && string(probe.Content.Envelope) != "null" {
			return KindIntotoV002
		}
		return KindIntotoV001
	}
	return KindUnknown
}
