package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/salvo/internal/config"
)

// DefaultUserAgent is sent unless the operator configures a User-Agent header.
const DefaultUserAgent = "salvo/1.0"

type RequestBuilder struct {
	method  string
	base    *url.URL
	headers http.Header
}

func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	base, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}
	if headers.Get("User-Agent") == "" {
		headers.Set("User-Agent", DefaultUserAgent)
	}

	return &RequestBuilder{
		method:  method,
		base:    base,
		headers: headers,
	}, nil
}

// ParseBaseURL accepts only absolute http(s) URLs with a host.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", raw)
	}
	return u, nil
}

// ResolveTarget appends endpoint to the base URL the way a string join would:
// the base path is kept, so "http://h/api" + "/health" is "http://h/api/health".
// An absolute http(s) endpoint replaces the base entirely.
func ResolveTarget(base *url.URL, endpoint string) (string, error) {
	if base == nil {
		return "", errors.New("base URL cannot be nil")
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("endpoint is required")
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		abs, err := ParseBaseURL(endpoint)
		if err != nil {
			return "", err
		}
		return abs.String(), nil
	}

	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if rel.Scheme != "" || rel.Host != "" {
		return "", fmt.Errorf("endpoint %q must be a path or an absolute http(s) URL", endpoint)
	}

	joined := *base
	joined.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(rel.Path, "/")
	joined.RawPath = ""
	joined.RawQuery = rel.RawQuery
	joined.Fragment = ""
	return joined.String(), nil
}

// Target resolves endpoint against the builder's base URL.
func (b *RequestBuilder) Target(endpoint string) (string, error) {
	if b == nil {
		return "", errors.New("builder cannot be nil")
	}
	return ResolveTarget(b.base, endpoint)
}

func (b *RequestBuilder) Method() string {
	return b.method
}

func (b *RequestBuilder) Build(ctx context.Context, target string) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, b.method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header = b.headers.Clone()
	return req, nil
}

// NewClient returns a keep-alive client whose pool holds up to maxConns
// connections per host. It sets no Client.Timeout; callers bound each request
// through its context.
func NewClient(maxConns int) *http.Client {
	if maxConns < 1 {
		maxConns = 1
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConns,
		MaxConnsPerHost:       maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
	}
}
