package main

import "testing"

func TestFormatMicros(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "€0.00"},
		{in: 1_234_567_890, want: "€1,234.56"},
		{in: -250_000_000_000, want: "-€250,000.00"},
	}
	for _, tc := range tests {
		if got := formatMicros(tc.in); got != tc.want {
			t.Fatalf("formatMicros(%d)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestCommaAndTruncate(t *testing.T) {
	if got := comma(1_000_000); got != "1,000,000" {
		t.Fatalf("got %q", got)
	}
	if got := comma(-12_345); got != "-12,345" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("Domaine des Trois Vents", 10); got != "Domaine..." {
		t.Fatalf("got %q", got)
	}
}
