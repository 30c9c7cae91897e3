package game

import (
	"errors"
	"testing"
)

func TestValidateCompanyName(t *testing.T) {
	valid := []string{"Chateau Lune", "Domaine des Trois Vents", "Vinhos Ribeira"}
	for _, s := range valid {
		if err := validateCompanyName(s); err != nil {
			t.Fatalf("expected name %q to be valid: %v", s, err)
		}
	}

	invalid := []string{"", "   ", "Admin Cellars", "this name is far too long to be accepted as a winery name"}
	for _, s := range invalid {
		err := validateCompanyName(s)
		if err == nil {
			t.Fatalf("expected name %q to fail", s)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", s, err)
		}
	}
}

func TestMoneyConversions(t *testing.T) {
	tests := []struct {
		euros  float64
		micros int64
	}{
		{euros: 0, micros: 0},
		{euros: 12.5, micros: 12_500_000},
		{euros: -3.000001, micros: -3_000_001},
	}
	for _, tc := range tests {
		if got := EurosToMicros(tc.euros); got != tc.micros {
			t.Fatalf("euros=%v got=%d want=%d", tc.euros, got, tc.micros)
		}
		if got := MicrosToEuros(tc.micros); got != tc.euros {
			t.Fatalf("micros=%d got=%v want=%v", tc.micros, got, tc.euros)
		}
	}
}

func TestShareUnits(t *testing.T) {
	if got := SharesToUnits(2.5); got != 25_000 {
		t.Fatalf("got %d", got)
	}
	if got := UnitsToShares(1_000_000 * ShareScale); got != 1_000_000 {
		t.Fatalf("got %v", got)
	}
}
