package money

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
		wantErr  bool
	}{
		{"two decimal currency", "50.00", "USD", "50.00", false},
		{"rounds to scale", "50.005", "USD", "50.01", false},
		{"zero decimal currency", "1200", "JPY", "1200", false},
		{"rounds yen to integer", "1200.4", "JPY", "1200", false},
		{"three decimal currency", "1.2345", "KWD", "1.235", false},
		{"negative amount", "-13.37", "EUR", "-13.37", false},
		{"unparsable", "fifty", "USD", "", true},
		{"empty string", "", "USD", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.amount, tt.currency)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmountFormat) {
					t.Fatalf("New(%q) error = %v, expected ErrInvalidAmountFormat", tt.amount, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) unexpected error: %v", tt.amount, err)
			}
			if m.String() != tt.want {
				t.Errorf("New(%q).String() = %q, expected %q", tt.amount, m.String(), tt.want)
			}
		})
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"50.00", "13.37"},
		{"0.00", "99.99"},
		{"-20.50", "20.50"},
		{"0.01", "0.02"},
	}

	for _, tt := range tests {
		a, _ := New(tt.a, "USD")
		b, _ := New(tt.b, "USD")

		sum, err := a.Add(b)
		if err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
		back, err := sum.Sub(b)
		if err != nil {
			t.Fatalf("Sub returned error: %v", err)
		}
		if !back.Equal(a) {
			t.Errorf("(%s + %s) - %s = %s, expected %s", tt.a, tt.b, tt.b, back, a)
		}
	}
}

func TestCurrencyMismatch(t *testing.T) {
	usd, _ := New("10.00", "USD")
	eur, _ := New("10.00", "EUR")

	if _, err := usd.Add(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Add across currencies error = %v, expected ErrCurrencyMismatch", err)
	}
	if _, err := usd.Sub(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Sub across currencies error = %v, expected ErrCurrencyMismatch", err)
	}
	if _, err := usd.Cmp(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("Cmp across currencies error = %v, expected ErrCurrencyMismatch", err)
	}
	if usd.Equal(eur) {
		t.Error("Equal should be false across currencies")
	}
}

func TestNegAbs(t *testing.T) {
	m, _ := New("12.34", "USD")

	if got := m.Neg().String(); got != "-12.34" {
		t.Errorf("Neg() = %s, expected -12.34", got)
	}
	if got := m.Neg().Abs().String(); got != "12.34" {
		t.Errorf("Neg().Abs() = %s, expected 12.34", got)
	}
	if !m.Neg().IsNegative() {
		t.Error("Neg() should be negative")
	}
	if m.IsNegative() {
		t.Error("positive amount reported negative")
	}
}

func TestZero(t *testing.T) {
	z := Zero("EUR")
	if !z.IsZero() {
		t.Error("Zero() should be zero")
	}
	if z.String() != "0.00" {
		t.Errorf("Zero(EUR).String() = %q, expected 0.00", z.String())
	}
	if z.CurrencyCode() != "EUR" {
		t.Errorf("Zero(EUR).CurrencyCode() = %q", z.CurrencyCode())
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		expected string
	}{
		{"12.34", "USD", "1234/100"},
		{"50.00", "EUR", "5000/100"},
		{"1200", "JPY", "1200/1"},
		{"1.234", "KWD", "1234/1000"},
		{"-9.99", "USD", "-999/100"},
	}

	for _, tt := range tests {
		m, err := New(tt.amount, tt.currency)
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.amount, err)
		}
		if got := m.Fraction(); got != tt.expected {
			t.Errorf("Fraction(%s %s) = %q, expected %q", tt.amount, tt.currency, got, tt.expected)
		}
	}
}

func TestDisplay(t *testing.T) {
	m, _ := New("99.90", "USD")
	if got := m.Display(); got != "99.90 USD" {
		t.Errorf("Display() = %q, expected %q", got, "99.90 USD")
	}
}
