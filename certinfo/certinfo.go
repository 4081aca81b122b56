// Package certinfo decodes X.509 certificates into display records.
package certinfo

import (
	"crypto/x509"
	"fmt"
	"math/big"
	"os"
	"time"

	ctx509 "github.com/google/certificate-transparency-go/x509"
	"github.com/jmhodges/clock"

	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/extension"
	"github.com/sigstore/rekor-search-ui/helpers"
	"github.com/sigstore/rekor-search-ui/log"
)

// Certificate represents a decoded certificate.
type Certificate struct {
	SerialNumber       string      `json:"serial_number" yaml:"serial_number"`
	Issuer             string      `json:"issuer" yaml:"issuer"`
	Subject            string      `json:"subject" yaml:"subject"`
	Validity           Validity    `json:"validity" yaml:"validity"`
	PublicKeyAlgorithm string      `json:"public_key_algorithm" yaml:"public_key_algorithm"`
	PublicKeySize      int         `json:"public_key_size,omitempty" yaml:"public_key_size,omitempty"`
	SignatureAlgorithm string      `json:"signature_algorithm" yaml:"signature_algorithm"`
	Extensions         *Extensions `json:"extensions" yaml:"extensions"`
	Lints              []Lint      `json:"lints,omitempty" yaml:"lints,omitempty"`
}

// Validity holds the rendered validity window. Each bound reads
// "<relative> (<absolute>)".
type Validity struct {
	NotBefore string `json:"not_before" yaml:"not_before"`
	NotAfter  string `json:"not_after" yaml:"not_after"`
}

// An Option configures a Decoder.
type Option func(*Decoder)

// WithClock sets the clock relative dates are measured from.
func WithClock(clk clock.Clock) Option {
	return func(d *Decoder) { d.clk = clk }
}

// WithLints enables the zlint report.
func WithLints() Option {
	return func(d *Decoder) { d.lints = true }
}

// Decoder turns raw certificates into Certificate records.
type Decoder struct {
	clk   clock.Clock
	lints bool
}

// NewDecoder returns a Decoder configured with opts.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{clk: clock.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// parsed is the subset of a certificate the display record is built from,
// common to both X.509 parsers.
type parsed struct {
	serial             *big.Int
	issuer             string
	subject            string
	notBefore          time.Time
	notAfter           time.Time
	publicKeyAlgorithm string
	publicKeySize      int
	signatureAlgorithm string
	extensions         []rawExtension
}

type rawExtension struct {
	oid      string
	critical bool
	value    []byte
}

// Decode decodes raw, which may be PEM text, base64-encoded DER or DER.
func (d *Decoder) Decode(raw []byte) (*Certificate, error) {
	der, err := helpers.CertificateDER(raw)
	if err != nil {
		return nil, err
	}
	return d.DecodeDER(der)
}

// DecodeDER decodes a DER certificate. The standard library parser is
// tried first; certificates it rejects are retried with the more lenient
// certificate-transparency-go parser, whose result is accepted when only
// non-fatal errors were reported.
func (d *Decoder) DecodeDER(der []byte) (*Certificate, error) {
	p, err := parseStd(der)
	if err != nil {
		log.Debugf("standard x509 parse failed, retrying leniently: %v", err)
		var ctErr error
		p, ctErr = parseCT(der)
		if ctErr != nil {
			return nil, rserr.Wrap(rserr.CertificateError, rserr.ParseFailed, err)
		}
	}

	cert := d.build(p)
	if d.lints {
		lints, err := lintCertificate(der)
		if err != nil {
			log.Warningf("certificate lint skipped: %v", err)
		} else {
			cert.Lints = lints
		}
	}
	return cert, nil
}

// ParseCertificate builds the record for an already parsed certificate.
func (d *Decoder) ParseCertificate(cert *x509.Certificate) *Certificate {
	return d.build(fromStd(cert))
}

func (d *Decoder) build(p *parsed) *Certificate {
	cert := &Certificate{
		SerialNumber: "0x" + p.serial.Text(16),
		Issuer:       p.issuer,
		Subject:      p.subject,
		Validity: Validity{
			NotBefore: helpers.RelativeDateString(d.clk, p.notBefore),
			NotAfter:  helpers.RelativeDateString(d.clk, p.notAfter),
		},
		PublicKeyAlgorithm: p.publicKeyAlgorithm,
		PublicKeySize:      p.publicKeySize,
		SignatureAlgorithm: p.signatureAlgorithm,
		Extensions:         NewExtensions(),
	}
	for _, ext := range p.extensions {
		label, value := extension.Decode(ext.oid, ext.critical, ext.value)
		cert.Extensions.Set(label, value)
	}
	return cert
}

func parseStd(der []byte) (*parsed, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return fromStd(cert), nil
}

func fromStd(cert *x509.Certificate) *parsed {
	p := &parsed{
		serial:             cert.SerialNumber,
		issuer:             cert.Issuer.String(),
		subject:            cert.Subject.String(),
		notBefore:          cert.NotBefore,
		notAfter:           cert.NotAfter,
		publicKeyAlgorithm: cert.PublicKeyAlgorithm.String(),
		publicKeySize:      helpers.KeyLength(cert.PublicKey),
		signatureAlgorithm: helpers.SignatureString(cert.SignatureAlgorithm),
	}
	if p.serial == nil {
		p.serial = new(big.Int)
	}
	for _, ext := range cert.Extensions {
		p.extensions = append(p.extensions, rawExtension{
			oid:      ext.Id.String(),
			critical: ext.Critical,
			value:    ext.Value,
		})
	}
	return p
}

func parseCT(der []byte) (*parsed, error) {
	cert, err := ctx509.ParseCertificate(der)
	if cert == nil || ctx509.IsFatal(err) {
		if err == nil {
			err = fmt.Errorf("certificate-transparency-go returned no certificate")
		}
		return nil, err
	}
	if err != nil {
		log.Debugf("lenient x509 parse reported non-fatal errors: %v", err)
	}
	p := &parsed{
		serial:             cert.SerialNumber,
		issuer:             cert.Issuer.String(),
		subject:            cert.Subject.String(),
		notBefore:          cert.NotBefore,
		notAfter:           cert.NotAfter,
		publicKeyAlgorithm: fmt.Sprint(cert.PublicKeyAlgorithm),
		signatureAlgorithm: fmt.Sprint(cert.SignatureAlgorithm),
	}
	if p.serial == nil {
		p.serial = new(big.Int)
	}
	for _, ext := range cert.Extensions {
		p.extensions = append(p.extensions, rawExtension{
			oid:      ext.Id.String(),
			critical: ext.Critical,
			value:    ext.Value,
		})
	}
	return p, nil
}

var defaultDecoder = NewDecoder()

// ParseCertificatePEM decodes a PEM-encoded certificate.
func ParseCertificatePEM(certPEM []byte) (*Certificate, error) {
	cert, err := helpers.ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, err
	}
	return defaultDecoder.ParseCertificate(cert), nil
}

// ParseCertificateFile decodes the certificate stored at path in any form
// Decode accepts.
func ParseCertificateFile(path string) (*Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, rserr.Wrap(rserr.CertificateError, rserr.ReadFailed, err)
	}
	return defaultDecoder.Decode(raw)
}
