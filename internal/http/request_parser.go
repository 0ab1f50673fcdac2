// Package http exposes the ledger as a JSON API.
//
// This file implements utilities for parsing request bodies and query
// strings into domain values.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/app"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// maxBodyBytes caps every request body, imports included.
const maxBodyBytes = 10 << 20

// Query keys understood by ParseFilterParams.
var filterKeys = []string{"type", "search", "start", "end", "view", "month", "year"}

// ParseFilterParams overlays the filter criteria present in query on base.
// The second result reports whether any criterion was given.
func ParseFilterParams(query url.Values, base ledger.Filter) (ledger.Filter, bool) {
	f := base
	given := false
	for _, key := range filterKeys {
		if !query.Has(key) {
			continue
		}
		given = true
		raw := query.Get(key)
		v := sanitizeInput(raw)
		switch key {
		case "type":
			f.Type = ledger.TypeFilter(v)
		case "search":
			f.Search = stripControl(raw)
		case "start":
			f.DateRange.Start = v
		case "end":
			f.DateRange.End = v
		case "view":
			f.ViewMode = ledger.ViewMode(v)
		case "month":
			f.SelectedMonth = v
		case "year":
			f.SelectedYear = v
		}
	}
	return f, given
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(trimmed)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Int returns key as an integer, 0 when absent.
func (p *RequestBodyParser) Int(key string) (int, error) {
	v := p.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errMalformedBody, key)
	}
	return n, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// TransactionInput maps the parsed body onto the entry form fields.
func (p *RequestBodyParser) TransactionInput() app.TransactionInput {
	return app.TransactionInput{
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Type:        core.TxType(p.Get("type")),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
		Note:        p.Get("note"),
	}
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
