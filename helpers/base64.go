package helpers

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// DefaultUnwrapDepth bounds how many base64 layers UnwrapBase64 peels off
// an attestation payload.
const DefaultUnwrapDepth = 3

var base64Pattern = regexp.MustCompile(`^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`)

// IsBase64 reports whether s is non-empty, padded, standard-alphabet
// base64 text.
func IsBase64(s string) bool {
	if s == "" {
		return false
	}
	return base64Pattern.MatchString(s)
}

// DecodeBase64 decodes s with the standard alphabet. Input that is not
// base64, or that fails to decode, is returned unchanged.
func DecodeBase64(s string) string {
	if !IsBase64(s) {
		return s
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(b)
}

// BufferToHex renders b as lowercase hex pairs joined by ':'.
func BufferToHex(b []byte) string {
	return hexPairs(b, "%02x")
}

// FormatKeyID renders b as uppercase hex pairs joined by ':'.
func FormatKeyID(b []byte) string {
	return hexPairs(b, "%02X")
}

func hexPairs(b []byte, verb string) string {
	pairs := make([]string, len(b))
	for i, c := range b {
		pairs[i] = fmt.Sprintf(verb, c)
	}
	return strings.Join(pairs, ":")
}

// UnwrapBase64 repeatedly decodes value while it still looks like base64,
// at most maxDepth times.
func UnwrapBase64(value string, maxDepth int) string {
	return Unwrap(StdCodec{}, value, maxDepth)
}

// Base64Codec detects and decodes base64 text. The normalizer takes one
// so callers can substitute their own alphabet or instrumentation.
type Base64Codec interface {
	IsBase64(s string) bool
	DecodeString(s string) ([]byte, error)
}

// StdCodec is the standard-alphabet, padded Base64Codec.
type StdCodec struct{}

// IsBase64 implements Base64Codec.
func (StdCodec) IsBase64(s string) bool {
	return IsBase64(s)
}

// DecodeString implements Base64Codec.
func (StdCodec) DecodeString(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Decode is DecodeBase64 over an arbitrary codec.
func Decode(codec Base64Codec, value string) string {
	if !codec.IsBase64(value) {
		return value
	}
	b, err := codec.DecodeString(value)
	if err != nil {
		return value
	}
	return string(b)
}

// Unwrap is UnwrapBase64 over an arbitrary codec.
func Unwrap(codec Base64Codec, value string, maxDepth int) string {
	for depth := 0; depth < maxDepth && codec.IsBase64(value); depth++ {
		decoded := Decode(codec, value)
		if decoded == value {
			break
		}
		value = decoded
	}
	return value
}
