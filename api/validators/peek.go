package validators

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
)

const maxPeekBytes = 64 << 10

// NormalizeEmail is the canonical form used for account and cart lookups.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// PeekEmail reads the "email" field of a JSON body and rewinds the body for
// the handler. Bodies that are not JSON objects yield an empty email; the
// handler's own decode reports those.
func PeekEmail(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	if len(raw) > maxPeekBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "request body too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var probe struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", nil
	}
	return NormalizeEmail(probe.Email), nil
}
