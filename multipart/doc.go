// Package multipart encodes multipart/form-data request bodies,
// deciding between in-memory and disk-streamed encoding based on the
// total size of the accumulated parts.
//
// Parts are appended to a [Form] inside a configuration callback, and
// [Encode] performs the work off the calling goroutine:
//
//	res := multipart.Encode(req, func(f *multipart.Form) {
//		f.Append(multipart.BytesPart("title", []byte("report")))
//		f.Append(multipart.FilePart("attachment", "/tmp/report.pdf"))
//	})
//	out := res.Outcome() // blocks; delivered exactly once
//
// When the byte total is at most [DefaultMemoryThreshold] (or the
// value given via [WithMemoryThreshold]) the body is encoded entirely
// in memory. Above the threshold it is streamed to a private temporary
// file whose lifetime becomes the caller's responsibility once the
// outcome is consumed; the file must remain valid until the dispatched
// upload completes.
//
// Totals are computed from in-memory lengths, file sizes on disk, and
// the caller's size hints for streams. Hints are trusted
// unconditionally; a stream without a hint forces the disk path.
package multipart
