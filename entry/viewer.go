package entry

import (
	"encoding/json"
	"fmt"

	"github.com/sigstore/rekor-search-ui/certinfo"
)

// Public key titles.
const (
	TitlePublicKey            = "Public Key"
	TitlePublicKeyCertificate = "Public Key Certificate"
)

// IntotoV001SignatureNote explains the missing signature for intoto
// v0.0.1 entries, whose spec does not carry it.
const IntotoV001SignatureNote = "signature unavailable for intoto v0.0.1 entries"

// Viewer is the kind-specific view of an entry.
type Viewer struct {
	Kind          Kind       `json:"kind" yaml:"kind"`
	Hash          Hash       `json:"hash" yaml:"hash"`
	Signature     string     `json:"signature,omitempty" yaml:"signature,omitempty"`
	SignatureNote string     `json:"signature_note,omitempty" yaml:"signature_note,omitempty"`
	PublicKey     *PublicKey `json:"public_key,omitempty" yaml:"public_key,omitempty"`
}

// Hash is an algorithm-tagged digest.
type Hash struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Value     string `json:"value" yaml:"value"`
}

// String renders h as "<algorithm>:<value>", or "" if h is empty.
func (h Hash) String() string {
	if h.Algorithm == "" && h.Value == "" {
		return ""
	}
	return h.Algorithm + ":" + h.Value
}

// PublicKey is the key or certificate material of an entry. Certificate
// is set only when Content held a certificate that decoded.
type PublicKey struct {
	Title       string                `json:"title" yaml:"title"`
	Content     string                `json:"content" yaml:"content"`
	Certificate *certinfo.Certificate `json:"certificate,omitempty" yaml:"certificate,omitempty"`
}

type hashField struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// hash returns the zero Hash for a missing field.
func (h *hashField) hash() Hash {
	if h == nil {
		return Hash{}
	}
	return Hash{Algorithm: h.Algorithm, Value: h.Value}
}

// extracted is the material a viewer is built from, before the public key
// is decoded.
type extracted struct {
	hash          Hash
	signature     string
	signatureNote string
	publicKey     string
	// decodeSignature marks signatures stored base64-encoded for display.
	decodeSignature bool
}

type hashedRekordSpec struct {
	Data struct {
		Hash *hashField `json:"hash"`
	} `json:"data"`
	Signature struct {
		Content   string `json:"content"`
		PublicKey struct {
			Content string `json:"content"`
		} `json:"publicKey"`
	} `json:"signature"`
}

type intotoV001Spec struct {
	Content struct {
		Hash        *hashField `json:"hash"`
		PayloadHash *hashField `json:"payloadHash"`
	} `json:"content"`
	PublicKey string `json:"publicKey"`
}

type intotoV002Spec struct {
	Content struct {
		Envelope struct {
			PayloadType string `json:"payloadType"`
			Signatures  []struct {
				Sig       string `json:"sig"`
				PublicKey string `json:"publicKey"`
			} `json:"signatures"`
		} `json:"envelope"`
		PayloadHash *hashField `json:"payloadHash"`
	} `json:"content"`
}

type dsseSpec struct {
	PayloadHash *hashField `json:"payloadHash"`
	Signatures  []struct {
		Signature string `json:"signature"`
		Verifier  string `json:"verifier"`
	} `json:"signatures"`
}

func extract(kind Kind, spec json.RawMessage) (*extracted, error) {
	switch kind {
	case KindHashedRekord:
		var s hashedRekordSpec
		if err := json.Unmarshal(spec, &s); err != nil {
			return nil, err
		}
		return &extracted{
			hash:      s.Data.Hash.hash(),
			signature: s.Signature.Content,
			publicKey: s.Signature.PublicKey.Content,
		}, nil

	case KindIntotoV001:
		var s intotoV001Spec
		if err := json.Unmarshal(spec, &s); err != nil {
			return nil, err
		}
		h := s.Content.Hash
		if h == nil {
			h = s.Content.PayloadHash
		}
		return &extracted{
			hash:          h.hash(),
			signatureNote: IntotoV001SignatureNote,
			publicKey:     s.PublicKey,
		}, nil

	case KindIntotoV002:
		var s intotoV002Spec
		if err := json.Unmarshal(spec, &s); err != nil {
			return nil, err
		}
		x := &extracted{hash: s.Content.PayloadHash.hash(), decodeSignature: true}
		if sigs := s.Content.Envelope.Signatures; len(sigs) > 0 {
			x.signature, x.publicKey = sigs[0].Sig, sigs[0].PublicKey
		}
		return x, nil

	case KindDSSE:
		var s dsseSpec
		if err := json.Unmarshal(spec, &s); err != nil {
			return nil, err
		}
		x := &extracted{hash: s.PayloadHash.hash()}
		if len(s.Signatures) > 0 {
			x.signature, x.publicKey = s.Signatures[0].Signature, s.Signatures[0].Verifier
		}
		return x, nil
	}
	return nil, fmt.Errorf("no viewer for kind %s", kind)
}
