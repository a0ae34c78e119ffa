// Package manager provides the default [reqkit.Session]: it owns the
// underlying [net/http.Client], executes dispatched operations on
// managed goroutines, and implements the download destination and
// resume contracts.
//
// # Building a Manager
//
// Use [Build] with functional options:
//
//	m, err := manager.Build(
//		manager.WithTimeout(30 * time.Second),
//		manager.WithUserAgent("myapp/1.0"),
//		manager.WithThrottle(100, 10),
//	)
//	c, err := reqkit.New(m)
//
// # Handles
//
// Every dispatch returns a handle immediately; the network work runs
// on a managed goroutine. [Manager.Wait] blocks until all in-flight
// operations finish and returns their errors joined, and
// [Manager.Shutdown] prevents new work from starting.
//
// # Resume tokens
//
// A download handle cancelled mid-stream retains its partial file and
// exposes an opaque resume token via [Task.ResumeToken]. Feeding that
// token back through [Manager.DispatchResume] continues the transfer
// with a ranged request, falling back to a full restart when the
// server no longer honors the range. Tokens from other managers or
// with missing state fail at dispatch time with [ErrMalformedToken].
package manager
