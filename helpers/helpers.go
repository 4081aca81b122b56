// Package helpers implements utility functionality common to the
// certificate, entry and search packages.
package helpers

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"

	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
)

// PEMCertificateMarker is the armour line that identifies PEM-encoded
// certificate text.
const PEMCertificateMarker = "BEGIN CERTIFICATE"

// KeyLength returns the bit size of an ECDSA, RSA or Ed25519 public key.
func KeyLength(key interface{}) int {
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		return k.Curve.Params().BitSize
	case *rsa.PublicKey:
		return k.N.BitLen()
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

// SignatureString returns the signature algorithm name of an X.509
// signature algorithm.
func SignatureString(alg x509.SignatureAlgorithm) string {
	switch alg {
	case x509.MD2WithRSA:
		return "MD2WithRSA"
	case x509.MD5WithRSA:
		return "MD5WithRSA"
	case x509.SHA1WithRSA:
		return "SHA1WithRSA"
	case x509.SHA256WithRSA:
		return "SHA256WithRSA"
	case x509.SHA384WithRSA:
		return "SHA384WithRSA"
	case x509.SHA512WithRSA:
		return "SHA512WithRSA"
	case x509.SHA256WithRSAPSS:
		return "SHA256WithRSAPSS"
	case x509.SHA384WithRSAPSS:
		return "SHA384WithRSAPSS"
	case x509.SHA512WithRSAPSS:
		return "SHA512WithRSAPSS"
	case x509.DSAWithSHA1:
		return "DSAWithSHA1"
	case x509.DSAWithSHA256:
		return "DSAWithSHA256"
	case x509.ECDSAWithSHA1:
		return "ECDSAWithSHA1"
	case x509.ECDSAWithSHA256:
		return "ECDSAWithSHA256"
	case x509.ECDSAWithSHA384:
		return "ECDSAWithSHA384"
	case x509.ECDSAWithSHA512:
		return "ECDSAWithSHA512"
	case x509.PureEd25519:
		return "Ed25519"
	default:
		return "Unknown Signature"
	}
}

// ParseCertificatePEM parses and returns a PEM-encoded certificate.
func ParseCertificatePEM(certPEM []byte) (*x509.Certificate, error) {
	certPEM = bytes.TrimSpace(certPEM)
	cert, rest, err := ParseOneCertificateFromPEM(certPEM)
	if err != nil {
		// Log the actual parsing error but throw a default parse error message.
		log.Debugf("Certificate parsing error: %v", err)
		return nil, rserr.New(rserr.CertificateError, rserr.ParseFailed)
	} else if cert == nil {
		return nil, rserr.New(rserr.CertificateError, rserr.DecodeFailed)
	} else if len(bytes.TrimSpace(rest)) > 0 {
		return nil, rserr.Wrap(rserr.CertificateError, rserr.ParseFailed, errors.New("the PEM data should contain only one certificate"))
	}
	return cert, nil
}

// ParseOneCertificateFromPEM attempts to parse one certificate from the top of the certsPEM,
// which may contain multiple certs.
func ParseOneCertificateFromPEM(certsPEM []byte) (cert *x509.Certificate, rest []byte, err error) {
	block, rest := pem.Decode(certsPEM)
	if block == nil {
		return nil, rest, nil
	}
	cert, err = x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, rest, err
	}
	return
}

// CertificateDER extracts the DER bytes of a single certificate from raw,
// which may be PEM text, base64-encoded DER or DER itself.
func CertificateDER(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, rserr.Wrap(rserr.CertificateError, rserr.ReadFailed, errors.New("empty certificate input"))
	}
	if bytes.Contains(trimmed, []byte(PEMCertificateMarker)) {
		for rest := trimmed; ; {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				return nil, rserr.New(rserr.CertificateError, rserr.DecodeFailed)
			}
			if block.Type == "CERTIFICATE" {
				return block.Bytes, nil
			}
		}
	}
	if s := string(trimmed); IsBase64(s) {
		der, err := base64.StdEncoding.DecodeString(s)
		if err == nil && len(der) > 0 && der[0] == 0x30 {
			return der, nil
		}
	}
	// A DER certificate starts with a SEQUENCE tag.
	if raw[0] == 0x30 {
		return raw, nil
	}
	return nil, rserr.New(rserr.CertificateError, rserr.DecodeFailed)
}
