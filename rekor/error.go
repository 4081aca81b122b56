package rekor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the log. Code is kept as the log sent
// it; the log reports it as a number, some proxies as a string.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("rekor: %d (code %s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("rekor: %d: %s", e.StatusCode, msg)
}

// UnmarshalJSON accepts code as either a JSON number or string.
func (e *Error) UnmarshalJSON(data []byte) error {
	var wire struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.Message = wire.Message
	code := strings.TrimSpace(string(wire.Code))
	switch {
	case code == "" || code == "null":
		e.Code = ""
	case strings.HasPrefix(code, `"`):
		if err := json.Unmarshal(wire.Code, &e.Code); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(wire.Code, &n); err != nil {
			return err
		}
		e.Code = n.String()
	}
	return nil
}

func parseError(status int, body []byte) *Error {
	e := &Error{}
	if len(body) > 0 && json.Unmarshal(body, e) != nil {
		e.Message = strings.TrimSpace(string(body))
	}
	e.StatusCode = status
	return e
}
