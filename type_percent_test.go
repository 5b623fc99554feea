package rhfolio

import "testing"

func TestPercentOf(t *testing.T) {
	tests := []struct {
		part, total Money
		want        Percent
	}{
		{USD(250), USD(1550), 16.13},
		{USD(500), USD(1550), 32.26},
		{USD(1550), USD(1550), 100},
		{USD(10), USD(0), 0}, // empty portfolio, no allocation
	}
	for _, tt := range tests {
		if got := PercentOf(tt.part, tt.total); !got.Equal(tt.want) {
			t.Errorf("PercentOf(%v, %v) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestPercentString(t *testing.T) {
	if got, want := Percent(16.13).String(), "16.13%"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := Percent(12.5).SignedString(), "+12.50%"; got != want {
		t.Errorf("SignedString() = %q, want %q", got, want)
	}
	if got, want := Percent(0).SignedString(), "-"; got != want {
		t.Errorf("SignedString(0) = %q, want %q", got, want)
	}
}
