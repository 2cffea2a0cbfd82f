package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/DataEditor/internal/config"
	"github.com/JonMunkholm/DataEditor/internal/logging"
)

// Authentication error codes, reported in the same JSON shape as the API's
// other errors.
const (
	CodeMissingKey = "AUTH001"
	CodeInvalidKey = "AUTH002"
)

// apiKeys holds SHA-256 digests of the accepted keys so every comparison
// runs over the same number of bytes.
type apiKeys [][sha256.Size]byte

func newAPIKeys(keys []string) apiKeys {
	out := make(apiKeys, 0, len(keys))
	for _, k := range keys {
		out = append(out, sha256.Sum256([]byte(k)))
	}
	return out
}

// accepts checks key against every configured key.
func (a apiKeys) accepts(key string) bool {
	sum := sha256.Sum256([]byte(key))
	match := 0
	for i := range a {
		match |= subtle.ConstantTimeCompare(sum[:], a[i][:])
	}
	return match == 1
}

// APIKeyAuth guards the JSON API. When cfg.RequireAPIKey is false it is a
// no-op. Otherwise a request must carry one of cfg.APIKeys, either in
// X-API-Key or as "Authorization: Bearer <key>".
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if !cfg.RequireAPIKey {
		return func(next http.Handler) http.Handler { return next }
	}
	keys := newAPIKeys(cfg.APIKeys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)
			switch {
			case key == "":
				rejectKey(w, r, http.StatusUnauthorized, authError{
					Error:   "missing API key",
					Message: "This API requires an API key",
					Action:  "Send the key in the X-API-Key header",
					Code:    CodeMissingKey,
				})
			case !keys.accepts(key):
				rejectKey(w, r, http.StatusForbidden, authError{
					Error:   "invalid API key",
					Message: "The API key was not accepted",
					Action:  "Check the key with your administrator",
					Code:    CodeInvalidKey,
				})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// requestKey returns the key a request presents, preferring X-API-Key.
func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

type authError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func rejectKey(w http.ResponseWriter, r *http.Request, status int, e authError) {
	logging.FromContext(r.Context()).Warn("api key rejected",
		"code", e.Code,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", remoteIP(r.RemoteAddr),
	)

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(e)
}
