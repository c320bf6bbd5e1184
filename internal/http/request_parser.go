// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for decoding and validating request data:
// JSON bodies, amount and date fields, and typed query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// DecodeJSON reads a single JSON object from r into dst. Unknown fields are
// rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", errBadRequest, maxErr.Limit)
		default:
			return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON object", errBadRequest)
	}
	return nil
}

// ParseAmountField parses a required amount, naming the field on failure.
func ParseAmountField(field, s string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", core.ErrInvalidAmount, field, s)
	}
	return d, nil
}

// ParseOptionalAmount parses an amount that may be absent.
func ParseOptionalAmount(field string, s *string) (decimal.NullDecimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseAmountField(field, *s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseOptionalRate parses an annual percentage that may be absent.
func ParseOptionalRate(field string, s *string) (decimal.NullDecimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := core.ParseRate(*s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s %q", core.ErrInvalidRate, field, *s)
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseDate parses a YYYY-MM-DD date as a UTC day.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", errBadRequest, field)
	}
	return t.UTC(), nil
}

// ParseOptionalDate parses a date that may be absent.
func ParseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// QueryParser reads typed query parameters and keeps the first error.
type QueryParser struct {
	values url.Values
	err    error
}

// NewQueryParser wraps the request's query string.
func NewQueryParser(r *http.Request) *QueryParser {
	return &QueryParser{values: r.URL.Query()}
}

func (p *QueryParser) raw(name string) string {
	return strings.TrimSpace(sanitizeInput(p.values.Get(name)))
}

func (p *QueryParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: "+format, append([]any{errBadRequest}, args...)...)
	}
}

// String returns the parameter or def when absent.
func (p *QueryParser) String(name, def string) string {
	if v := p.raw(name); v != "" {
		return v
	}
	return def
}

// Amount returns a required non-negative amount.
func (p *QueryParser) Amount(name string) decimal.Decimal {
	v := p.raw(name)
	if v == "" {
		p.fail("missing parameter %s", name)
		return decimal.Zero
	}
	d, err := core.ParseAmount(v)
	if err != nil {
		p.fail("invalid amount for %s: %q", name, v)
		return decimal.Zero
	}
	return d
}

// Float returns a non-negative number, or def when absent.
func (p *QueryParser) Float(name string, def float64) float64 {
	v := p.raw(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil || f < 0 {
		p.fail("invalid number for %s: %q", name, v)
		return def
	}
	return f
}

// Int returns a non-negative integer, or def when absent.
func (p *QueryParser) Int(name string, def int) int {
	v := p.raw(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.fail("invalid integer for %s: %q", name, v)
		return def
	}
	return n
}

// RequiredInt returns an integer that must be present.
func (p *QueryParser) RequiredInt(name string) int {
	if p.raw(name) == "" {
		p.fail("missing parameter %s", name)
		return 0
	}
	return p.Int(name, 0)
}

// Err returns the first parsing error.
func (p *QueryParser) Err() error {
	return p.err
}
