package reqkit

import (
	"errors"
	"log/slog"
	"net/http"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error

type options struct {
	logger             *slog.Logger
	multipartThreshold int64
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithMultipartMemoryThreshold overrides the byte total above which
// multipart bodies are streamed to disk instead of encoded in memory.
// The default is [multipart.DefaultMemoryThreshold].
func WithMultipartMemoryThreshold(bytes int64) Option {
	return func(o *options) error {
		if bytes <= 0 {
			return errors.New("threshold must be greater than zero")
		}
		o.multipartThreshold = bytes
		return nil
	}
}

// RequestOption is a functional option shared by the request, upload,
// and download families. Each dispatch call constructs its own
// settings; defaults are documented on the individual options.
type RequestOption func(*requestOpts) error

type requestOpts struct {
	headers  http.Header
	cookies  []*http.Cookie
	params   Parameters
	encoding ParameterEncoding
}

// WithHeaders replaces the named headers on the outgoing request.
// Keys are case-insensitive; for each key the supplied values win over
// any pre-existing values.
func WithHeaders(headers http.Header) RequestOption {
	return func(opts *requestOpts) error {
		if opts.headers == nil {
			opts.headers = http.Header{}
		}
		for k, vals := range headers {
			opts.headers.Del(k)
			for _, v := range vals {
				opts.headers.Add(k, v)
			}
		}
		return nil
	}
}

// WithHeader sets a single header, overwriting earlier values for the
// same case-insensitive key.
func WithHeader(key, value string) RequestOption {
	return func(opts *requestOpts) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		if opts.headers == nil {
			opts.headers = http.Header{}
		}
		opts.headers.Set(key, value)
		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = cookies
		return nil
	}
}

// WithParameters supplies the parameter mapping embedded into the
// request. Without [WithEncoding] the strategy defaults to the query
// string for GET, HEAD, and DELETE, and a form-encoded body otherwise.
func WithParameters(params Parameters) RequestOption {
	return func(opts *requestOpts) error {
		opts.params = params
		return nil
	}
}

// WithEncoding selects the [ParameterEncoding] applied to the
// parameters given via [WithParameters]. At most one encoding is
// applied per build.
func WithEncoding(enc ParameterEncoding) RequestOption {
	return func(opts *requestOpts) error {
		if enc == nil {
			return errors.New("encoding must not be nil")
		}
		opts.encoding = enc
		return nil
	}
}
