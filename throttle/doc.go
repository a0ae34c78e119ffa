// Package throttle provides an [net/http.RoundTripper] that rate
// limits outbound requests with a token bucket, for use as a transport
// option on the session manager.
package throttle
