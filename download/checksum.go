package download

import (
	"encoding/hex"
	"fmt"
	"hash"
)

// checksumVerifier tees the downloaded bytes through a hash and
// compares the final digest with the expected hex string.
type checksumVerifier struct {
	h    hash.Hash
	want string
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	return v.h.Write(p)
}

// Verify is nil-safe so the handle can call it unconditionally.
func (v *checksumVerifier) Verify() error {
	if v == nil {
		return nil
	}

	got := hex.EncodeToString(v.h.Sum(nil))
	if got == v.want {
		return nil
	}

	return &Error{
		Err:    ErrChecksumMismatch,
		Detail: fmt.Sprintf("expected %s, got %s", v.want, got),
	}
}
