// Package extension maps X.509 extension OIDs to display names and value
// decoders. The registry is fixed at package initialisation; OIDs that are
// not registered render as a hex dump of the extension value.
package extension

import (
	"sort"

	"github.com/sigstore/rekor-search-ui/helpers"
	"github.com/sigstore/rekor-search-ui/log"
)

// CriticalSuffix is appended to the label of critical extensions.
const CriticalSuffix = " (critical)"

// A Decoder converts the raw value of an extension into a display value:
// a string, a slice of strings, or a small struct.
type Decoder func(value []byte, critical bool) (interface{}, error)

// Descriptor is one registry entry.
type Descriptor struct {
	OID    string
	Name   string
	Decode Decoder
}

// Well-known extension OIDs.
const (
	OIDSubjectKeyIdentifier   = "2.5.29.14"
	OIDKeyUsage               = "2.5.29.15"
	OIDSubjectAltName         = "2.5.29.17"
	OIDBasicConstraints       = "2.5.29.19"
	OIDAuthorityKeyIdentifier = "2.5.29.35"
	OIDExtendedKeyUsage       = "2.5.29.37"

	// FulcioOIDPrefix roots the Sigstore certificate extensions.
	FulcioOIDPrefix = "1.3.6.1.4.1.57264.1."
)

var registry = buildRegistry()

func buildRegistry() map[string]Descriptor {
	descs := []Descriptor{
		{OIDSubjectKeyIdentifier, "Subject Key Identifier", decodeSubjectKeyID},
		{OIDKeyUsage, "Key Usage", decodeKeyUsage},
		{OIDSubjectAltName, "Subject Alternative Name", decodeSubjectAltName},
		{OIDBasicConstraints, "Basic Constraints", decodeBasicConstraints},
		{OIDAuthorityKeyIdentifier, "Authority Key Identifier", decodeAuthorityKeyID},
		{OIDExtendedKeyUsage, "Extended Key Usage", decodeExtKeyUsage},
	}
	descs = append(descs, fulcioDescriptors()...)

	m := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		m[d.OID] = d
	}
	return m
}

// Lookup returns the descriptor registered for oid.
func Lookup(oid string) (Descriptor, bool) {
	d, ok := registry[oid]
	return d, ok
}

// OIDs lists every registered OID in lexical order.
func OIDs() []string {
	oids := make([]string, 0, len(registry))
	for oid := range registry {
		oids = append(oids, oid)
	}
	sort.Strings(oids)
	return oids
}

// Label returns name, suffixed with CriticalSuffix when critical is set.
func Label(name string, critical bool) string {
	if critical {
		return name + CriticalSuffix
	}
	return name
}

// Decode renders one extension. A registered OID uses its name and
// decoder; an unregistered OID, or a value the decoder rejects, renders as
// BufferToHex of the raw value.
func Decode(oid string, critical bool, value []byte) (string, interface{}) {
	d, ok := registry[oid]
	if !ok {
		return Label(oid, critical), helpers.BufferToHex(value)
	}
	label := Label(d.Name, critical)
	decoded, err := d.Decode(value, critical)
	if err != nil {
		log.Debugf("extension %s (%s): %v", d.Name, oid, err)
		return label, helpers.BufferToHex(value)
	}
	return label, decoded
}
