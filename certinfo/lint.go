package certinfo

import (
	"sort"

	zx509 "github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3"
	"github.com/zmap/zlint/v3/lint"
)

// Lint is one non-passing zlint result.
type Lint struct {
	Name    string `json:"name" yaml:"name"`
	Status  string `json:"status" yaml:"status"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

var lintStatusNames = map[lint.LintStatus]string{
	lint.Notice: "notice",
	lint.Warn:   "warn",
	lint.Error:  "error",
	lint.Fatal:  "fatal",
}

// lintCertificate runs the zlint registry over der and returns the
// non-passing results sorted by lint name.
func lintCertificate(der []byte) ([]Lint, error) {
	zc, err := zx509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	rs := zlint.LintCertificate(zc)

	var lints []Lint
	for name, res := range rs.Results {
		if res == nil {
			continue
		}
		status, ok := lintStatusNames[res.Status]
		if !ok {
			continue
		}
		lints = append(lints, Lint{Name: name, Status: status, Details: res.Details})
	}
	sort.Slice(lints, func(i, j int) bool { return lints[i].Name < lints[j].Name })
	return lints, nil
}
