package validators

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// maxPathParamLen fits the longest legal email address.
const maxPathParamLen = 320

// PathParam returns the unescaped, trimmed chi URL parameter. Empty,
// over-long or control-character values are validation errors.
func PathParam(r *http.Request, key string) (string, error) {
	invalid := func(reason string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, key+" "+reason).WithDetails(map[string]any{"field": key})
	}

	decoded, err := url.PathUnescape(chi.URLParam(r, key))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid path parameter").WithDetails(map[string]any{"field": key})
	}
	value := strings.TrimSpace(decoded)
	switch {
	case value == "":
		return "", invalid("is required")
	case len(value) > maxPathParamLen:
		return "", invalid("is too long")
	case strings.IndexFunc(value, unicode.IsControl) >= 0:
		return "", invalid("contains control characters")
	}
	return value, nil
}
