package helpers

import (
	"testing"
	"time"
)

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0:00"},
		{in: -5 * time.Second, want: "0:00"},
		{in: 59 * time.Second, want: "0:59"},
		{in: 3 * time.Minute, want: "3:00"},
		{in: 2*time.Minute + 7*time.Second, want: "2:07"},
		{in: 10 * time.Minute, want: "10:00"},
	}
	for _, tc := range cases {
		if got := FormatCountdown(tc.in); got != tc.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatExpiry(t *testing.T) {
	if got := FormatExpiry(300); got != "5:00" {
		t.Errorf("FormatExpiry(300) = %q", got)
	}
	if got := FormatExpiry(90); got != "1:30" {
		t.Errorf("FormatExpiry(90) = %q", got)
	}
	if got := FormatExpiry(-1); got != "0:00" {
		t.Errorf("FormatExpiry(-1) = %q", got)
	}
}
