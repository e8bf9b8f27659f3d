package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes caps request bodies; the largest legitimate body is a chat
// message.
const maxBodyBytes = 64 << 10

var errInvalidBody = &core.ValidationError{Field: "body", Message: "Request body must be a JSON object"}

// RequestBodyParser reads a JSON object body once and exposes its scalar
// members as trimmed strings. Unknown members are kept but ignored by callers
// that restrict to an entity's fields.
type RequestBodyParser struct {
	body   []byte
	data   map[string]any
	parsed bool
	err    error
}

// NewRequestBodyParser reads the body of r, limited to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. An empty body is an empty object; anything that is
// not a JSON object is a validation error.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(p.err, &tooLarge) {
			p.err = &core.ValidationError{Field: "body", Message: "Request body too large"}
		}
		return p.err
	}

	p.data = map[string]any{}
	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] != '{' {
		p.err = errInvalidBody
		return p.err
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&p.data); err != nil {
		p.err = errInvalidBody
		return p.err
	}
	return nil
}

// Get returns a member as a sanitized string, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	v, ok := p.data[key]
	if !ok {
		return ""
	}
	return sanitizeInput(stringValue(v))
}

// Has reports whether the member is present and not null.
func (p *RequestBodyParser) Has(key string) bool {
	v, ok := p.data[key]
	return ok && v != nil
}

// Fields returns the present members that belong to entity e, keyed by their
// JSON names. Absent members stay absent so patches leave them untouched.
func (p *RequestBodyParser) Fields(e core.Entity) map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if p.Has(f.JSON) {
			out[f.JSON] = p.Get(f.JSON)
		}
	}
	return out
}

// GetString returns a member that is a JSON string, sanitized. Numbers,
// booleans and objects report false.
func (p *RequestBodyParser) GetString(key string) (string, bool) {
	v, ok := p.data[key].(string)
	if !ok {
		return "", false
	}
	return sanitizeInput(v), true
}

// stringValue renders a decoded JSON scalar. Numbers keep their literal
// digits so "12.50" and 12.50 store the same.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and decodes the body, writing a 400 on failure.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, err, "", "parse request")
		return nil, false
	}
	return p, true
}

// monthParam returns the trimmed "month" query parameter.
func monthParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("month"))
}
