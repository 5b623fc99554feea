package rhfolio

import (
	"encoding/json"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input string
		want  Money
		err   bool
	}{
		{"1234.5600", USD(1234.56), false},
		{"$1,234.56", USD(1234.56), false},
		{" 42 ", USD(42), false},
		{"-310.0000", USD(-310), false},
		{"0.00", USD(0), false},
		{"abc", Money{}, true},
		{"", Money{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input, "USD")
			if (err != nil) != tt.err {
				t.Fatalf("ParseMoney(%q) error = %v, wantErr %v", tt.input, err, tt.err)
			}
			if !tt.err && !got.Equal(tt.want) {
				t.Errorf("ParseMoney(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{USD(1234.5), "$1,234.50"},
		{USD(0), "$0.00"},
		{USD(-0.05), "-$0.05"},
		{USD(2.345), "$2.35"}, // rounded half-up to the cent
		{USD(1000000), "$1,000,000.00"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMoneySignedString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{USD(12.5), "+$12.50"},
		{USD(-12.5), "-$12.50"},
		{USD(0), "-"},
	}
	for _, tt := range tests {
		if got := tt.m.SignedString(); got != tt.want {
			t.Errorf("SignedString() = %q, want %q", got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	// the zero Money is a usable accumulator, it takes the currency of the
	// first real amount
	var total Money
	total = total.Add(USD(100))
	total = total.Add(USD(50.5))
	if !total.Equal(USD(150.5)) {
		t.Errorf("accumulated = %v, want $150.50", total)
	}
	if total.Currency() != "USD" {
		t.Errorf("Currency() = %q, want USD", total.Currency())
	}

	if got := USD(3.10).Mul(Q(200)); !got.Equal(USD(620)) {
		t.Errorf("Mul = %v, want $620.00", got)
	}
	if got := USD(310).Div(Q(2)); !got.Equal(USD(155)) {
		t.Errorf("Div = %v, want $155.00", got)
	}
	if got := USD(-5).Abs(); !got.Equal(USD(5)) {
		t.Errorf("Abs = %v, want $5.00", got)
	}
	if got := USD(5).Neg(); !got.Equal(USD(-5)) {
		t.Errorf("Neg = %v, want -$5.00", got)
	}
}

func TestMoneyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("adding USD and EUR did not panic")
		}
	}()
	USD(1).Add(M(1, "EUR"))
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(USD(1234.5))
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"currency":"USD","amount":"1234.5"}`; string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}
