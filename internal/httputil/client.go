// Package httputil builds the HTTP client used for recognition API calls.
package httputil

import (
	"net"
	"net/http"
	"time"
)

// ClientOptions configures the API client.
type ClientOptions struct {
	// Timeout bounds the whole request including reading the body.
	Timeout time.Duration

	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is how long to wait for the model to start
	// answering. Vision requests can take tens of seconds.
	ResponseHeaderTimeout time.Duration

	MaxRedirects    int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// DefaultOptions returns options suitable for a single-host API client.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		Timeout:               60 * time.Second,
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		MaxRedirects:          5,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
	}
}

// APIClientOptions returns DefaultOptions with both the request and the
// response header timeout set to timeout. A zero timeout keeps the defaults.
func APIClientOptions(timeout time.Duration) ClientOptions {
	opts := DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
		opts.ResponseHeaderTimeout = timeout
	}
	return opts
}

// NewSecureClient creates an HTTP client whose redirects must stay on HTTPS
// and may not point at private, loopback or link-local addresses. Response
// compression is left to the transport's default handling.
func NewSecureClient(opts ClientOptions) *http.Client {
	def := DefaultOptions()
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.TLSHandshakeTimeout == 0 {
		opts.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if opts.ResponseHeaderTimeout == 0 {
		opts.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.IdleConnTimeout == 0 {
		opts.IdleConnTimeout = def.IdleConnTimeout
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
			ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          opts.MaxIdleConns,
			IdleConnTimeout:       opts.IdleConnTimeout,
		},
		CheckRedirect: redirectChecker(opts.MaxRedirects),
	}
}
