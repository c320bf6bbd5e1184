package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Salary"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"x","extra":1}`, true},
		{"trailing object", `{"name":"x"}{"name":"y"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Errorf("error %v should wrap errBadRequest", err)
			}
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var p struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(httptest.NewRecorder(), r, &p); !errors.Is(err, errBadRequest) {
		t.Errorf("DecodeJSON() error = %v, want errBadRequest", err)
	}
}

func TestParseAmountField(t *testing.T) {
	got, err := ParseAmountField("amount", "12,345")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(decimal.RequireFromString("12.35")) {
		t.Errorf("got %s", got)
	}

	_, err = ParseAmountField("amount", "-3")
	if !errors.Is(err, core.ErrInvalidAmount) || !strings.Contains(err.Error(), "amount") {
		t.Errorf("error = %v", err)
	}
}

func TestParseOptionalFields(t *testing.T) {
	empty := ""
	if d, err := ParseOptionalAmount("cost_basis", &empty); err != nil || d.Valid {
		t.Errorf("empty amount: %v %v", d, err)
	}
	if d, err := ParseOptionalAmount("cost_basis", nil); err != nil || d.Valid {
		t.Errorf("nil amount: %v %v", d, err)
	}

	rate := "4,5"
	d, err := ParseOptionalRate("interest_rate", &rate)
	if err != nil || !d.Valid || !d.Decimal.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("rate: %v %v", d, err)
	}
	bad := "abc"
	if _, err := ParseOptionalRate("interest_rate", &bad); !errors.Is(err, core.ErrInvalidRate) {
		t.Errorf("bad rate error = %v", err)
	}

	date := "2024-02-29"
	tm, err := ParseOptionalDate("due_date", &date)
	if err != nil || tm == nil || tm.Day() != 29 {
		t.Errorf("date: %v %v", tm, err)
	}
	wrong := "29/02/2024"
	if _, err := ParseOptionalDate("due_date", &wrong); !errors.Is(err, errBadRequest) {
		t.Errorf("bad date error = %v", err)
	}
}

func TestQueryParser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?principal=1000&rate=4,5&years=10&n=12&name=%20x%20", nil)
	q := NewQueryParser(r)

	if got := q.Amount("principal"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("principal = %s", got)
	}
	if got := q.Float("rate", 0); got != 4.5 {
		t.Errorf("rate = %v", got)
	}
	if got := q.Float("missing", 7); got != 7 {
		t.Errorf("default float = %v", got)
	}
	if got := q.Int("n", 0); got != 12 {
		t.Errorf("n = %d", got)
	}
	if got := q.String("name", ""); got != "x" {
		t.Errorf("name = %q", got)
	}
	if err := q.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryParser_KeepsFirstError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?rate=abc&years=-1", nil)
	q := NewQueryParser(r)
	q.Amount("principal")
	q.Float("rate", 0)
	q.Float("years", 0)

	err := q.Err()
	if !errors.Is(err, errBadRequest) || !strings.Contains(err.Error(), "principal") {
		t.Errorf("Err() = %v, want missing principal", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Rent\x00\x07\tmonthly  "); got != "Rent\tmonthly" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
