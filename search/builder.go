package search

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/rekor"
)

// HashPrefix marks a hash query value with its algorithm.
const HashPrefix = "sha256:"

// Hasher digests search text into an index hash query.
type Hasher interface {
	Digest(msg string) string
}

// SHA256Hasher returns HashPrefix followed by the hex SHA-256 of msg.
type SHA256Hasher struct{}

// Digest implements Hasher.
func (SHA256Hasher) Digest(msg string) string {
	sum := sha256.Sum256([]byte(msg))
	return HashPrefix + hex.EncodeToString(sum[:])
}

// LookupKind says which log call resolves a Lookup.
type LookupKind int

// Lookup kinds.
const (
	LookupIndex LookupKind = iota
	LookupUUID
	LookupLogIndex
)

// Lookup is a Query resolved to a concrete log call.
type Lookup struct {
	Kind     LookupKind
	Index    rekor.SearchIndex
	UUID     string
	LogIndex int64
}

// Direct reports whether the lookup names a single entry.
func (l Lookup) Direct() bool {
	return l.Kind != LookupIndex
}

// Builder resolves queries into lookups.
type Builder struct {
	Hasher Hasher
}

// NewBuilder returns a Builder using h, or SHA256Hasher if h is nil.
func NewBuilder(h Hasher) *Builder {
	if h == nil {
		h = SHA256Hasher{}
	}
	return &Builder{Hasher: h}
}

// Build resolves q. Hash values gain HashPrefix unless already prefixed;
// commit SHAs are digested with the builder's Hasher.
func (b *Builder) Build(q Query) (Lookup, error) {
	switch q.Attribute {
	case AttributeEmail:
		return Lookup{Kind: LookupIndex, Index: rekor.SearchIndex{Email: q.Value}}, nil
	case AttributeHash:
		return Lookup{Kind: LookupIndex, Index: rekor.SearchIndex{Hash: CanonicalHash(q.Value)}}, nil
	case AttributeCommitSha:
		h := b.Hasher
		if h == nil {
			h = SHA256Hasher{}
		}
		return Lookup{Kind: LookupIndex, Index: rekor.SearchIndex{Hash: h.Digest(q.Value)}}, nil
	case AttributeUUID:
		return Lookup{Kind: LookupUUID, UUID: q.Value}, nil
	case AttributeLogIndex:
		return Lookup{Kind: LookupLogIndex, LogIndex: q.LogIndex}, nil
	}
	return Lookup{}, rserr.New(rserr.QueryError, rserr.InvalidAttribute)
}

// CanonicalHash prefixes v with HashPrefix unless it already carries it.
func CanonicalHash(v string) string {
	if strings.HasPrefix(v, HashPrefix) {
		return v
	}
	return HashPrefix + v
}
