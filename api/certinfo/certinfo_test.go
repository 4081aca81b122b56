package certinfo

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sigstore/rekor-search-ui/helpers/testsuite"
)

type certResponse struct {
	Success bool `json:"success"`
	Result  struct {
		SerialNumber string `json:"serial_number"`
		Subject      string `json:"subject"`
	} `json:"result"`
}

func postCertificate(t *testing.T, body map[string]string) (int, certResponse) {
	t.Helper()
	ts := httptest.NewServer(NewHandler(nil))
	defer ts.Close()

	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var cr certResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		t.Fatalf("invalid response %q: %v", raw, err)
	}
	return resp.StatusCode, cr
}

func TestCertinfoHandler(t *testing.T) {
	der, err := testsuite.CreateCertificate(testsuite.CertificateRequest{Serial: big.NewInt(0xabc)})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cert string
	}{
		{"pem", string(testsuite.EncodePEM(der))},
		{"base64", base64.StdEncoding.EncodeToString(der)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, cr := postCertificate(t, map[string]string{"certificate": test.cert})
			if status != http.StatusOK || !cr.Success {
				t.Fatalf("unexpected status %d: %+v", status, cr)
			}
			if cr.Result.SerialNumber != "0xabc" {
				t.Fatalf("unexpected serial %q", cr.Result.SerialNumber)
			}
		})
	}
}

func TestCertinfoHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"missing", map[string]string{"domain": "example.com"}, http.StatusBadRequest},
		{"garbage", map[string]string{"certificate": "not a certificate"}, http.StatusUnprocessableEntity},
		{"empty", map[string]string{"certificate": ""}, http.StatusUnprocessableEntity},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, cr := postCertificate(t, test.body)
			if status != test.status || cr.Success {
				t.Fatalf("want %d, got %d", test.status, status)
			}
		})
	}
}
