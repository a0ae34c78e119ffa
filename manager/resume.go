package manager

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/adamwoolhether/reqkit/download"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// resumeState is this manager's private layout for resume tokens.
// Callers only ever see the marshaled bytes; the facade stores and
// replays them as an undifferentiated sequence.
type resumeState struct {
	URL     string `json:"url" validate:"required,url"`
	ETag    string `json:"etag,omitempty"`
	Offset  int64  `json:"offset" validate:"gte=0"`
	Partial string `json:"partial" validate:"required"`
}

func encodeResumeState(s resumeState) download.ResumeToken {
	b, err := json.Marshal(s)
	if err != nil {
		// resumeState marshals from plain fields; this cannot fail.
		panic(err)
	}

	return download.ResumeToken(b)
}

func decodeResumeState(token download.ResumeToken) (resumeState, error) {
	var s resumeState
	if err := json.Unmarshal(token, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if err := validate.Struct(s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return s, nil
}
