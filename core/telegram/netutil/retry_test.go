package netutil

import (
	"errors"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "net timeout", err: timeoutErr{}, want: true},
		{name: "dial op", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "read op non-transient", err: &net.OpError{Op: "read", Err: errors.New("reset")}, want: false},
		{name: "url wrapped timeout", err: &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, want: true},
		{name: "deadline via op", err: &net.OpError{Op: "read", Err: &net.DNSError{IsTimeout: true, Err: "timeout"}}, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldRetry(tc.err); got != tc.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
