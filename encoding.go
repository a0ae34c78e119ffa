package reqkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
	"howett.net/plist"
)

// Parameters is a caller-supplied parameter mapping. Values are
// stringified with fmt.Sprint by the URL-based encodings; slices
// produce one entry per element under the same key.
type Parameters map[string]any

// StructParameters flattens a struct tagged with `url` field tags into
// [Parameters], suitable for [QueryEncoding] and [FormEncoding].
func StructParameters(v any) (Parameters, error) {
	vals, err := query.Values(v)
	if err != nil {
		return nil, fmt.Errorf("flattening struct parameters: %w", err)
	}

	params := make(Parameters, len(vals))
	for k, vs := range vals {
		if len(vs) == 1 {
			params[k] = vs[0]
			continue
		}
		params[k] = vs
	}

	return params, nil
}

// ParameterEncoding embeds a parameter mapping into a request. Exactly
// one encoding is applied per build; there is no fallback chain.
//
// Structured encodings report failures as [*EncodingError].
// [CustomEncoding] failures are forwarded untouched.
type ParameterEncoding interface {
	Apply(req *http.Request, params Parameters) error
	Name() string
}

// QueryEncoding serializes parameters as percent-encoded key=value
// pairs appended to the URL's query component, merging with any
// existing query.
type QueryEncoding struct{}

func (QueryEncoding) Name() string { return "query" }

func (QueryEncoding) Apply(req *http.Request, params Parameters) error {
	encoded := encodeValues(params).Encode()
	if req.URL.RawQuery != "" {
		req.URL.RawQuery += "&" + encoded
	} else {
		req.URL.RawQuery = encoded
	}

	return nil
}

// FormEncoding serializes parameters as an
// application/x-www-form-urlencoded request body. The Content-Type
// header is set only when not already present.
type FormEncoding struct{}

func (FormEncoding) Name() string { return "form" }

func (FormEncoding) Apply(req *http.Request, params Parameters) error {
	setBody(req, []byte(encodeValues(params).Encode()))
	setContentTypeIfAbsent(req, "application/x-www-form-urlencoded")

	return nil
}

// JSONEncoding serializes parameters as a JSON document request body.
// The Content-Type header is set only when not already present.
type JSONEncoding struct{}

func (JSONEncoding) Name() string { return "json" }

func (e JSONEncoding) Apply(req *http.Request, params Parameters) error {
	b, err := json.Marshal(map[string]any(params))
	if err != nil {
		return &EncodingError{Encoding: e.Name(), Err: err}
	}

	setBody(req, b)
	setContentTypeIfAbsent(req, "application/json")

	return nil
}

// PropertyListEncoding serializes parameters as a binary property list
// request body. The Content-Type header is set only when not already
// present.
type PropertyListEncoding struct{}

func (PropertyListEncoding) Name() string { return "plist" }

func (e PropertyListEncoding) Apply(req *http.Request, params Parameters) error {
	b, err := plist.Marshal(map[string]any(params), plist.BinaryFormat)
	if err != nil {
		return &EncodingError{Encoding: e.Name(), Err: err}
	}

	setBody(req, b)
	setContentTypeIfAbsent(req, "application/x-plist")

	return nil
}

// CustomEncoding delegates parameter embedding entirely to the given
// function. A failure is forwarded to the caller exactly as returned.
type CustomEncoding func(req *http.Request, params Parameters) error

func (CustomEncoding) Name() string { return "custom" }

func (fn CustomEncoding) Apply(req *http.Request, params Parameters) error {
	return fn(req, params)
}

// defaultEncoding mirrors common REST semantics: methods without
// request bodies get their parameters in the query string, everything
// else gets a form-encoded body.
func defaultEncoding(method string) ParameterEncoding {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return QueryEncoding{}
	default:
		return FormEncoding{}
	}
}

func encodeValues(params Parameters) url.Values {
	vals := url.Values{}
	for k, v := range params {
		switch elems := v.(type) {
		case []string:
			for _, e := range elems {
				vals.Add(k, e)
			}
		case []any:
			for _, e := range elems {
				vals.Add(k, fmt.Sprint(e))
			}
		default:
			vals.Add(k, fmt.Sprint(v))
		}
	}

	return vals
}

func setBody(req *http.Request, b []byte) {
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.ContentLength = int64(len(b))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}

func setContentTypeIfAbsent(req *http.Request, value string) {
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", value)
	}
}
