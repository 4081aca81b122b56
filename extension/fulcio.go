package extension

import (
	"strconv"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Fulcio identity extensions. Arcs 1 to 6 carry the raw UTF-8 value;
// arcs 8 and up wrap it in a DER UTF8String. Arc 7 is the otherName SAN
// type, not an extension.
var fulcioNames = map[int]string{
	1:  "OIDC Issuer",
	2:  "GitHub Workflow Trigger",
	3:  "GitHub Workflow SHA",
	4:  "GitHub Workflow Name",
	5:  "GitHub Workflow Repository",
	6:  "GitHub Workflow Ref",
	8:  "OIDC Issuer (V2)",
	9:  "Build Signer URI",
	10: "Build Signer Digest",
	11: "Runner Environment",
	12: "Source Repository URI",
	13: "Source Repository Digest",
	14: "Source Repository Ref",
	15: "Source Repository Identifier",
	16: "Source Repository Owner URI",
	17: "Source Repository Owner Identifier",
	18: "Build Config URI",
	19: "Build Config Digest",
	20: "Build Trigger",
	21: "Run Invocation URI",
	22: "Source Repository Visibility At Signing",
}

func fulcioDescriptors() []Descriptor {
	descs := make([]Descriptor, 0, len(fulcioNames))
	for arc, name := range fulcioNames {
		dec := decodeRawText
		if arc >= 8 {
			dec = decodeDERText
		}
		descs = append(descs, Descriptor{
			OID:    FulcioOIDPrefix + strconv.Itoa(arc),
			Name:   name,
			Decode: dec,
		})
	}
	return descs
}

func decodeRawText(value []byte, _ bool) (interface{}, error) {
	return string(value), nil
}

// decodeDERText unwraps a DER UTF8String, falling back to the raw bytes
// for issuers that wrote the value unwrapped.
func decodeDERText(value []byte, _ bool) (interface{}, error) {
	input := cryptobyte.String(value)
	var text cryptobyte.String
	if input.ReadASN1(&text, asn1.UTF8String) && input.Empty() {
		return string(text), nil
	}
	return string(value), nil
}
