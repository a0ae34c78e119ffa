package reqkit

import (
	"fmt"
	"net/http"
	"net/url"
)

// Locator is any value that can yield the absolute address of a
// resource. Variants are constructed explicitly at the call site;
// there are no implicit conversions.
type Locator interface {
	// ResolveAddress returns the address string. Resolution is pure:
	// it performs no network or filesystem access and no validation
	// beyond what is needed to derive the address. A malformed address
	// fails later, at request-build time.
	ResolveAddress() (string, error)
}

// Address is a raw address string. It resolves to itself unchanged.
type Address string

func (a Address) ResolveAddress() (string, error) {
	return string(a), nil
}

// Components assembles an address from structured URL parts.
// Scheme and Host are required; everything else is optional.
type Components struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  url.Values
}

func (c Components) ResolveAddress() (string, error) {
	if c.Scheme == "" || c.Host == "" {
		return "", fmt.Errorf("components require scheme and host: %w", ErrInvalidAddress)
	}

	host := c.Host
	if c.Port > 0 {
		host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}

	endpoint := url.URL{
		Scheme: c.Scheme,
		Host:   host,
		Path:   c.Path,
	}

	if len(c.Query) > 0 {
		endpoint.RawQuery = c.Query.Encode()
	}

	return endpoint.String(), nil
}

// FromRequest derives the address of an existing [http.Request].
// The request must carry an absolute URL.
type FromRequest struct {
	Request *http.Request
}

func (f FromRequest) ResolveAddress() (string, error) {
	if f.Request == nil || f.Request.URL == nil {
		return "", fmt.Errorf("request has no URL: %w", ErrInvalidAddress)
	}

	if !f.Request.URL.IsAbs() {
		return "", fmt.Errorf("request URL %q is not absolute: %w", f.Request.URL, ErrInvalidAddress)
	}

	return f.Request.URL.String(), nil
}
