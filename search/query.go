// Package search turns a user's search into transparency log lookups and
// retrieves the matching raw entries a page at a time.
package search

import (
	"fmt"
	"strconv"
	"strings"

	rserr "github.com/sigstore/rekor-search-ui/errors"
)

// Attribute is the field a search matches on.
type Attribute string

// Searchable attributes.
const (
	AttributeEmail     Attribute = "email"
	AttributeHash      Attribute = "hash"
	AttributeCommitSha Attribute = "commitSha"
	AttributeUUID      Attribute = "uuid"
	AttributeLogIndex  Attribute = "logIndex"
)

// Attributes lists every searchable attribute.
var Attributes = []Attribute{
	AttributeEmail,
	AttributeHash,
	AttributeCommitSha,
	AttributeUUID,
	AttributeLogIndex,
}

// ParseAttribute returns the Attribute named s.
func ParseAttribute(s string) (Attribute, error) {
	for _, a := range Attributes {
		if string(a) == s {
			return a, nil
		}
	}
	return "", rserr.Wrap(rserr.QueryError, rserr.InvalidAttribute,
		fmt.Errorf("unknown search attribute %q", s))
}

// Query is one search. LogIndex is set only for AttributeLogIndex; Value
// holds the query text for every other attribute.
type Query struct {
	Attribute Attribute `json:"attribute"`
	Value     string    `json:"query"`
	LogIndex  int64     `json:"-"`
}

// NewQuery validates value for attr. Surrounding whitespace is ignored.
func NewQuery(attr Attribute, value string) (Query, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Query{}, rserr.Wrap(rserr.QueryError, rserr.BadRequest,
			fmt.Errorf("empty %s query", attr))
	}

	switch attr {
	case AttributeEmail, AttributeHash, AttributeCommitSha, AttributeUUID:
		return Query{Attribute: attr, Value: value}, nil
	case AttributeLogIndex:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return Query{}, rserr.Wrap(rserr.QueryError, rserr.BadRequest,
				fmt.Errorf("log index must be a non-negative integer, got %q", value))
		}
		return Query{Attribute: attr, Value: value, LogIndex: n}, nil
	}
	return Query{}, rserr.Wrap(rserr.QueryError, rserr.InvalidAttribute,
		fmt.Errorf("unknown search attribute %q", attr))
}

// ParseQuery is ParseAttribute followed by NewQuery.
func ParseQuery(attr, value string) (Query, error) {
	a, err := ParseAttribute(attr)
	if err != nil {
		return Query{}, err
	}
	return NewQuery(a, value)
}
