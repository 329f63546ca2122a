package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		query   string
		want    MonthParams
		wantErr bool
	}{
		{"", MonthParams{2025, 7}, false},
		{"year=2024", MonthParams{2024, 7}, false},
		{"month=1", MonthParams{2025, 1}, false},
		{"year=2023&month=12", MonthParams{2023, 12}, false},
		{"year=%202023%20", MonthParams{2023, 7}, false},
		{"month=13", MonthParams{}, true},
		{"month=0", MonthParams{}, true},
		{"year=0", MonthParams{}, true},
		{"year=twenty", MonthParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMonthParamsReference(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	ref := MonthParams{Year: 2025, Month: 2}.Reference(loc)
	if !ref.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, loc)) || ref.Location() != loc {
		t.Fatalf("Reference() = %v", ref)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"months=1", 1, false},
		{"months=60", 60, false},
		{"months=61", 0, true},
		{"months=-2", 0, true},
		{"months=x", 0, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := ParseWindow(q)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("%q: got %d, %v", tt.query, got, err)
		}
	}
}

func TestDecodeTransactionRequest(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"amount":19.999,"description":"Books","date":"2025-01-31","category":"Education","type":"expense"}`))

	in, err := decodeTransactionRequest(req, loc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Amount.Cents != 2000 {
		t.Fatalf("amount = %d cents", in.Amount.Cents)
	}
	if !in.Date.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, loc)) {
		t.Fatalf("date-only values belong to the server location, got %v", in.Date)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"amount":"3.5","description":"Bus","date":"2025-01-31T23:30:00Z","category":"Transportation","type":"expense"}`))
	in, err = decodeTransactionRequest(req, loc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Amount.Cents != 350 || !in.Date.Equal(time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected input %+v", in)
	}
}

func TestDecodeTransactionRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"missing amount", `{"description":"x","date":"2025-01-01","category":"Other","type":"expense"}`, core.ErrInvalidAmount},
		{"null amount", `{"amount":null,"description":"x","date":"2025-01-01","category":"Other","type":"expense"}`, core.ErrInvalidAmount},
		{"missing date", `{"amount":1,"description":"x","category":"Other","type":"expense"}`, core.ErrZeroDate},
		{"bad date", `{"amount":1,"description":"x","date":"yesterday","category":"Other","type":"expense"}`, errInvalidDate},
		{"missing category", `{"amount":1,"description":"x","date":"2025-01-01","type":"expense"}`, core.ErrEmptyCategory},
		{"long description", `{"amount":1,"description":"` + strings.Repeat("a", 201) + `","date":"2025-01-01","category":"Other","type":"expense"}`, core.ErrDescriptionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			_, err := decodeTransactionRequest(req, time.UTC)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat(" ", maxBodyBytes+10)))
	var be *bodyError
	if _, err := decodeTransactionRequest(req, time.UTC); !errors.As(err, &be) {
		t.Fatalf("oversized body should be a body error, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\x00b\tc\x1f "); got != "ab\tc" {
		t.Fatalf("sanitizeInput() = %q", got)
	}
}
