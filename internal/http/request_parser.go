// This file implements parsing and validation of query parameters and
// transaction request bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes bounds transaction request bodies.
const maxBodyBytes = 1 << 20

// maxWindow bounds the ?months= parameter of the series endpoint.
const maxWindow = 60

var errInvalidDate = errors.New("invalid date (want YYYY-MM-DD or RFC 3339)")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, defaulting
// each missing one to the month of now. Malformed or out-of-range values are
// an error rather than silently replaced.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("invalid month %q", v)
		}
		params.Month = m
	}

	return params, nil
}

// Reference returns the first instant of the month in loc.
func (p MonthParams) Reference(loc *time.Location) time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, loc)
}

// ParseWindow reads ?months=, returning 0 (the configured default) when it
// is absent.
func ParseWindow(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("months"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxWindow {
		return 0, fmt.Errorf("invalid months %q (1-%d)", v, maxWindow)
	}
	return n, nil
}

// ParseTypeFilter reads ?type=. An empty value means no filter.
func ParseTypeFilter(query url.Values) (core.TransactionType, error) {
	v := strings.TrimSpace(query.Get("type"))
	if v == "" {
		return "", nil
	}
	return core.ParseTransactionType(v)
}

// transactionRequest is the JSON body of create and update calls. Amount is
// a JSON number of units or a decimal string such as "12,50".
type transactionRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
}

// bodyError marks failures to read or decode the body itself.
type bodyError struct{ err error }

func (e *bodyError) Error() string { return "invalid request body: " + e.err.Error() }
func (e *bodyError) Unwrap() error { return e.err }

// decodeTransactionRequest reads the body into a TransactionInput. Decoding
// problems are returned as *bodyError, field problems as the core
// validation errors. Date-only values are placed at midnight in loc.
func decodeTransactionRequest(r *http.Request, loc *time.Location) (core.TransactionInput, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return core.TransactionInput{}, &bodyError{err}
	}
	if len(body) > maxBodyBytes {
		return core.TransactionInput{}, &bodyError{errors.New("body too large")}
	}

	var req transactionRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return core.TransactionInput{}, &bodyError{err}
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	date, err := parseDate(req.Date, loc)
	if err != nil {
		return core.TransactionInput{}, err
	}
	typ, err := core.ParseTransactionType(strings.TrimSpace(req.Type))
	if err != nil {
		return core.TransactionInput{}, err
	}

	in := core.TransactionInput{
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Type:        typ,
	}
	return in, in.Validate()
}

func parseAmount(raw json.RawMessage) (core.Money, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return core.Money{}, core.ErrInvalidAmount
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return core.Money{}, core.ErrInvalidAmount
		}
		cents, err := core.ParseDecimalToCents(s)
		if err != nil {
			return core.Money{}, err
		}
		return core.Money{Cents: cents}, nil
	}
	var m core.Money
	if err := m.UnmarshalJSON(raw); err != nil {
		return core.Money{}, err
	}
	return m, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, core.ErrZeroDate
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", errInvalidDate, s)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
