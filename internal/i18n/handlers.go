package i18n

import (
	"net/http"

	"github.com/blessedux/CasaGreda/internal/common"
)

// DictionaryHandler serves the full dictionary of the request locale so the
// storefront can render without bundling its own copy.
func DictionaryHandler(w http.ResponseWriter, r *http.Request) {
	locale := FromContext(r.Context())
	w.Header().Set("Cache-Control", "public, max-age=300")
	common.Data(w, http.StatusOK, map[string]any{
		"locale":     locale,
		"supported":  Supported,
		"dictionary": For(locale),
	})
}
