package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, KindTimeout},
		{"canceled", fmt.Errorf("do: %w", context.Canceled), KindCanceled},
		{"refused", &url.Error{Op: "Get", URL: "http://x", Err: refused}, KindRefused},
		{"reset", reset, KindReset},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, KindDNS},
		{"dns timeout", &net.DNSError{Err: "timeout", Name: "slow", IsTimeout: true}, KindTimeout},
		{"net timeout", timeoutErr{}, KindTimeout},
		{"other", errors.New("unexpected EOF"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorOutcomeKeepsDetail(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "http://localhost:1/", Err: context.DeadlineExceeded}
	o := ErrorOutcome(0, err)
	if o.StatusCode != 0 || o.Succeeded {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if o.ErrorKind != KindTimeout {
		t.Errorf("kind = %q, want %q", o.ErrorKind, KindTimeout)
	}
	if o.ErrorDetail != err.Error() {
		t.Errorf("detail = %q, want %q", o.ErrorDetail, err.Error())
	}
}
