package metrics

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// Error kinds attached to outcomes that never produced a response.
const (
	KindTimeout   = "timeout"
	KindCanceled  = "canceled"
	KindRefused   = "connection refused"
	KindReset     = "connection reset"
	KindDNS       = "dns"
	KindTLS       = "tls"
	KindDispatch  = "dispatch"
	KindTransport = "transport"
)

// Classify maps a transport error to one of the Kind constants.
// It returns an empty string for a nil error.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return KindReset
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	if isTLSError(err) {
		return KindTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindTransport
}

func isTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var certErr x509.CertificateInvalidError
	return errors.As(err, &certErr)
}
