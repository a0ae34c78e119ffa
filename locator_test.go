package reqkit_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/adamwoolhether/reqkit"
)

func TestAddress_ResolvesVerbatim(t *testing.T) {
	addrs := []string{
		"https://api.example.com/v1/items",
		"http://localhost:8080/path?q=1",
		"not a url at all", // validated at build time, not here
	}

	for _, addr := range addrs {
		got, err := reqkit.Address(addr).ResolveAddress()
		if err != nil {
			t.Fatalf("ResolveAddress(%q): unexpected error: %v", addr, err)
		}
		if got != addr {
			t.Errorf("ResolveAddress(%q) = %q, want it unchanged", addr, got)
		}
	}
}

func TestAddress_ResolutionIsIdempotent(t *testing.T) {
	addr := "https://api.example.com/v1/items?page=2"

	first, err := reqkit.Address(addr).ResolveAddress()
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	second, err := reqkit.Address(first).ResolveAddress()
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first != second {
		t.Errorf("resolving twice diverged: %q then %q", first, second)
	}
}

func TestComponents_ResolveAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      reqkit.Components
		want    string
		wantErr bool
	}{
		{
			name: "scheme host path",
			in:   reqkit.Components{Scheme: "https", Host: "api.example.com", Path: "/v1/items"},
			want: "https://api.example.com/v1/items",
		},
		{
			name: "with port and query",
			in: reqkit.Components{
				Scheme: "http",
				Host:   "localhost",
				Port:   8080,
				Path:   "/search",
				Query:  url.Values{"q": {"go"}},
			},
			want: "http://localhost:8080/search?q=go",
		},
		{
			name:    "missing scheme",
			in:      reqkit.Components{Host: "api.example.com"},
			wantErr: true,
		},
		{
			name:    "missing host",
			in:      reqkit.Components{Scheme: "https"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ResolveAddress()
			if tt.wantErr {
				if !errors.Is(err, reqkit.ErrInvalidAddress) {
					t.Fatalf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromRequest_ResolveAddress(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v1/items", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	got, err := reqkit.FromRequest{Request: req}.ResolveAddress()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://api.example.com/v1/items" {
		t.Errorf("got %q", got)
	}
}

func TestFromRequest_RelativeURLFails(t *testing.T) {
	req := &http.Request{URL: &url.URL{Path: "/only/a/path"}}

	if _, err := (reqkit.FromRequest{Request: req}).ResolveAddress(); !errors.Is(err, reqkit.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestFromRequest_NilRequestFails(t *testing.T) {
	if _, err := (reqkit.FromRequest{}).ResolveAddress(); !errors.Is(err, reqkit.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}
