// Package reqkit normalizes heterogeneous descriptions of an HTTP
// resource into a single canonical request and dispatches it through a
// [Session], the collaborator that owns the actual network I/O.
//
// # Locators
//
// Anything that can yield an absolute address implements [Locator].
// Construct a variant explicitly at the call site:
//
//	reqkit.Address("https://api.example.com/v1/items")
//	reqkit.Components{Scheme: "https", Host: "api.example.com", Path: "/v1/items"}
//	reqkit.FromRequest{Request: existing}
//
// # Dispatching
//
// Build a [Client] around a [Session] (see the
// [github.com/adamwoolhether/reqkit/manager] package for the default
// implementation) and use the request, upload, and download families:
//
//	c, err := reqkit.New(session)
//	h, err := c.Do(ctx, http.MethodGet, reqkit.Address(addr),
//		reqkit.WithParameters(reqkit.Parameters{"page": 2}),
//	)
//	err = h.Err() // blocks until the operation completes
//
// # Uploads
//
// Upload bodies come from a file, a byte slice, a reader, or a
// multipart form whose encoding runs off the calling goroutine:
//
//	h, err := c.UploadMultipart(ctx, http.MethodPost, reqkit.Address(addr),
//		func(f *multipart.Form) {
//			f.Append(multipart.FilePart("avatar", "/tmp/avatar.png"))
//		},
//	)
//
// # Downloads
//
// Downloads take a [download.Destination] deciding the final file
// location, and an interrupted download can be continued with the
// opaque resume token captured from its handle:
//
//	h, err := c.Download(ctx, reqkit.Address(addr), download.ToDir("/tmp"))
//	...
//	h, err = c.DownloadResume(ctx, token, download.ToDir("/tmp"))
package reqkit
