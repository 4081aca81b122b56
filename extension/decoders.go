package extension

import (
	encoding_asn1 "encoding/asn1"
	"errors"
	"fmt"
	"net"

	"github.com/sigstore/rekor-search-ui/helpers"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// ErrMalformed is returned by decoders for values that are not valid DER
// for their extension type.
var ErrMalformed = errors.New("extension: malformed value")

// KeyUsageNames holds the RFC 5280 key usage names, indexed by bit.
var KeyUsageNames = [...]string{
	"Digital Signature",
	"Non Repudiation",
	"Key Encipherment",
	"Data Encipherment",
	"Key Agreement",
	"Key Certificate Sign",
	"CRL Sign",
	"Encipher Only",
	"Decipher Only",
}

// CodeSigningOID is the only extended key usage rendered by name.
const CodeSigningOID = "1.3.6.1.5.5.7.3.3"

// SubjectAltName lists the names of a subjectAltName extension by type.
type SubjectAltName struct {
	Email     []string `json:"email,omitempty" yaml:"email,omitempty"`
	DNS       []string `json:"dns,omitempty" yaml:"dns,omitempty"`
	URI       []string `json:"uri,omitempty" yaml:"uri,omitempty"`
	IP        []string `json:"ip,omitempty" yaml:"ip,omitempty"`
	OtherName []string `json:"otherName,omitempty" yaml:"otherName,omitempty"`
}

// BasicConstraints is the decoded basicConstraints extension.
type BasicConstraints struct {
	CA bool `json:"CA" yaml:"CA"`
}

// AuthorityKeyID is the decoded authorityKeyIdentifier extension. CertID
// is the authority certificate serial number.
type AuthorityKeyID struct {
	KeyID  string `json:"keyid,omitempty" yaml:"keyid,omitempty"`
	CertID string `json:"certid,omitempty" yaml:"certid,omitempty"`
}

var (
	tagOtherName = asn1.Tag(0).ContextSpecific().Constructed()
	tagEmail     = asn1.Tag(1).ContextSpecific()
	tagDNS       = asn1.Tag(2).ContextSpecific()
	tagURI       = asn1.Tag(6).ContextSpecific()
	tagIP        = asn1.Tag(7).ContextSpecific()

	tagAKIKeyID  = asn1.Tag(0).ContextSpecific()
	tagAKIIssuer = asn1.Tag(1).ContextSpecific().Constructed()
	tagAKISerial = asn1.Tag(2).ContextSpecific()

	tagExplicit0 = asn1.Tag(0).ContextSpecific().Constructed()
)

func decodeSubjectKeyID(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var keyID []byte
	if !input.ReadASN1Bytes(&keyID, asn1.OCTET_STRING) || !input.Empty() {
		return nil, ErrMalformed
	}
	return []string{helpers.FormatKeyID(keyID)}, nil
}

func decodeKeyUsage(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var bits encoding_asn1.BitString
	if !input.ReadASN1BitString(&bits) || !input.Empty() {
		return nil, ErrMalformed
	}
	usages := []string{}
	for i, name := range KeyUsageNames {
		if bits.At(i) == 1 {
			usages = append(usages, name)
		}
	}
	return usages, nil
}

func decodeSubjectAltName(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var names cryptobyte.String
	if !input.ReadASN1(&names, asn1.SEQUENCE) || !input.Empty() {
		return nil, ErrMalformed
	}
	san := &SubjectAltName{}
	for !names.Empty() {
		var (
			name cryptobyte.String
			tag  asn1.Tag
		)
		if !names.ReadAnyASN1(&name, &tag) {
			return nil, ErrMalformed
		}
		switch tag {
		case tagEmail:
			san.Email = append(san.Email, string(name))
		case tagDNS:
			san.DNS = append(san.DNS, string(name))
		case tagURI:
			san.URI = append(san.URI, string(name))
		case tagIP:
			if len(name) != net.IPv4len && len(name) != net.IPv6len {
				return nil, ErrMalformed
			}
			san.IP = append(san.IP, net.IP(name).String())
		case tagOtherName:
			other, err := decodeOtherName(name)
			if err != nil {
				return nil, err
			}
			san.OtherName = append(san.OtherName, other)
		}
	}
	return san, nil
}

// decodeOtherName renders an otherName as its UTF8String value, the
// encoding Fulcio uses for username identities; other value types render
// as "<type-id>:<hex>".
func decodeOtherName(name cryptobyte.String) (string, error) {
	var (
		typeID   encoding_asn1.ObjectIdentifier
		explicit cryptobyte.String
	)
	if !name.ReadASN1ObjectIdentifier(&typeID) || !name.ReadASN1(&explicit, tagExplicit0) {
		return "", ErrMalformed
	}
	if explicit.PeekASN1Tag(asn1.UTF8String) {
		var text cryptobyte.String
		if !explicit.ReadASN1(&text, asn1.UTF8String) {
			return "", ErrMalformed
		}
		return string(text), nil
	}
	return fmt.Sprintf("%s:%s", typeID, helpers.BufferToHex(explicit)), nil
}

func decodeBasicConstraints(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) || !input.Empty() {
		return nil, ErrMalformed
	}
	bc := BasicConstraints{}
	if seq.PeekASN1Tag(asn1.BOOLEAN) {
		if !seq.ReadASN1Boolean(&bc.CA) {
			return nil, ErrMalformed
		}
	}
	return bc, nil
}

func decodeAuthorityKeyID(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) || !input.Empty() {
		return nil, ErrMalformed
	}
	aki := AuthorityKeyID{}
	var (
		field   cryptobyte.String
		present bool
	)
	if !seq.ReadOptionalASN1(&field, &present, tagAKIKeyID) {
		return nil, ErrMalformed
	}
	if present {
		aki.KeyID = helpers.FormatKeyID(field)
	}
	if !seq.ReadOptionalASN1(&field, &present, tagAKIIssuer) {
		return nil, ErrMalformed
	}
	if !seq.ReadOptionalASN1(&field, &present, tagAKISerial) {
		return nil, ErrMalformed
	}
	if present {
		aki.CertID = helpers.FormatKeyID(field)
	}
	return aki, nil
}

func decodeExtKeyUsage(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) || !input.Empty() {
		return nil, ErrMalformed
	}
	usages := []string{}
	for !seq.Empty() {
		var oid encoding_asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return nil, ErrMalformed
		}
		if s := oid.String(); s == CodeSigningOID {
			usages = append(usages, "Code Signing")
		} else {
			usages = append(usages, s)
		}
	}
	return usages, nil
}
