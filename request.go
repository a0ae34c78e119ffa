package reqkit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// NewRequest builds the canonical request used for dispatch. The
// method is always set explicitly, never inferred. Caller-supplied
// headers overwrite any pre-existing header of the same name
// (case-insensitive); unspecified headers are left absent.
//
// NewRequest fails with [ErrInvalidAddress] when the locator's address
// cannot parse as an absolute URI. Construction is synchronous and
// side-effect free; on error no partial request is returned.
func NewRequest(ctx context.Context, method string, locator Locator, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, fmt.Errorf("applying request option: %w", err)
		}
	}

	addr, err := locator.ResolveAddress()
	if err != nil {
		return nil, fmt.Errorf("resolving address: %w", err)
	}

	u, err := url.Parse(addr)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("address %q is not an absolute URI: %w", addr, ErrInvalidAddress)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for _, cookie := range settings.cookies {
		req.AddCookie(cookie)
	}

	for k, vals := range settings.headers {
		req.Header.Del(k)
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	if settings.params != nil {
		enc := settings.encoding
		if enc == nil {
			enc = defaultEncoding(method)
		}

		if err := enc.Apply(req, settings.params); err != nil {
			return nil, err
		}
	}

	return req, nil
}
