package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no-op on two places", "10.25", "10.25"},
		{"rounds repeating decimal", "33.333333333", "33.33"},
		{"rounds half up", "0.005", "0.01"},
		{"negative value", "-66.666666", "-66.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := decimal.NewFromString(tt.in)
			if err != nil {
				t.Fatalf("bad input %q: %v", tt.in, err)
			}
			if got := Round2(in).String(); got != tt.want {
				t.Errorf("Round2(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"exact zero", "0", true},
		{"below epsilon", "0.004", true},
		{"negative below epsilon", "-0.004", true},
		{"at epsilon", "0.005", false},
		{"a cent", "0.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, _ := decimal.NewFromString(tt.in)
			if got := IsZero(in); got != tt.want {
				t.Errorf("IsZero(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsPositive(t *testing.T) {
	if IsPositive(decimal.Zero) {
		t.Error("IsPositive(0) = true, want false")
	}
	if IsPositive(decimal.NewFromInt(-5)) {
		t.Error("IsPositive(-5) = true, want false")
	}
	// Tiny positive amounts are still positive; validity is not epsilon-based.
	small, _ := decimal.NewFromString("0.001")
	if !IsPositive(small) {
		t.Error("IsPositive(0.001) = false, want true")
	}
}

func TestSplitEqual(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
	}{
		{"terminating division", "100", 4},
		{"repeating division", "100", 3},
		{"seven ways", "50", 7},
		{"single sharer", "12.34", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, _ := decimal.NewFromString(tt.total)
			share := SplitEqual(total, tt.n)

			// n shares must reconstruct the total within epsilon.
			sum := share.Mul(decimal.NewFromInt(int64(tt.n)))
			if !IsZero(sum.Sub(total)) {
				t.Errorf("SplitEqual(%s, %d): n*share = %s, want %s within epsilon",
					tt.total, tt.n, sum, tt.total)
			}
		})
	}
}
