package rhfolio

import "testing"

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("10.00000000")
	if err != nil {
		t.Fatalf("ParseQuantity: %v", err)
	}
	if !q.Equal(Q(10)) {
		t.Errorf("got %v, want 10", q)
	}
	if _, err := ParseQuantity("ten"); err == nil {
		t.Error("ParseQuantity(ten) did not fail")
	}
}

func TestQuantityStringFixed(t *testing.T) {
	tests := []struct {
		q      Quantity
		places int32
		want   string
	}{
		{Q(0.5), 4, "0.5000"},
		{Q(10), 2, "10.00"},
		{Q(0.00120000), 4, "0.0012"},
		{Q(2.345), 2, "2.35"},
	}
	for _, tt := range tests {
		if got := tt.q.StringFixed(tt.places); got != tt.want {
			t.Errorf("StringFixed(%d) = %q, want %q", tt.places, got, tt.want)
		}
	}
}

func TestQuantityMin(t *testing.T) {
	if got := Q(5).Min(Q(3)); !got.Equal(Q(3)) {
		t.Errorf("Min = %v, want 3", got)
	}
	if got := Q(3).Min(Q(5)); !got.Equal(Q(3)) {
		t.Errorf("Min = %v, want 3", got)
	}
}
