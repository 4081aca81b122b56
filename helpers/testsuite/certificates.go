// Functions which allow for the creation of dummy certificates shaped like
// the short-lived code signing certificates found in log entries.

package testsuite

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/url"
	"time"
)

// CertificateRequest describes a self-signed test certificate. Zero values
// get defaults suitable for a Fulcio-style leaf.
type CertificateRequest struct {
	CN              string
	Serial          *big.Int
	NotBefore       time.Time
	NotAfter        time.Time
	Emails          []string
	DNSNames        []string
	URIs            []string
	IsCA            bool
	KeyUsage        x509.KeyUsage
	ExtKeyUsage     []x509.ExtKeyUsage
	SubjectKeyID    []byte
	AuthorityKeyID  []byte
	ExtraExtensions []pkix.Extension
}

// CreateCertificate self-signs req with a fresh P-256 key and returns the
// DER encoding.
func CreateCertificate(req CertificateRequest) ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	serial := req.Serial
	if serial == nil {
		serial = big.NewInt(0x1f2e3d)
	}
	notBefore := req.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Date(2023, time.March, 1, 12, 0, 0, 0, time.UTC)
	}
	notAfter := req.NotAfter
	if notAfter.IsZero() {
		notAfter = notBefore.Add(10 * time.Minute)
	}
	cn := req.CN
	if cn == "" {
		cn = "sigstore-intermediate"
	}

	var uris []*url.URL
	for _, u := range req.URIs {
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, err
		}
		uris = append(uris, parsed)
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"sigstore.dev"}},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              req.KeyUsage,
		ExtKeyUsage:           req.ExtKeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  req.IsCA,
		EmailAddresses:        req.Emails,
		DNSNames:              req.DNSNames,
		URIs:                  uris,
		SubjectKeyId:          req.SubjectKeyID,
		AuthorityKeyId:        req.AuthorityKeyID,
		ExtraExtensions:       req.ExtraExtensions,
	}
	return x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
}

// CreateCertificatePEM is CreateCertificate with PEM armour.
func CreateCertificatePEM(req CertificateRequest) ([]byte, error) {
	der, err := CreateCertificate(req)
	if err != nil {
		return nil, err
	}
	return EncodePEM(der), nil
}

// EncodePEM wraps a DER certificate in a CERTIFICATE PEM block.
func EncodePEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
