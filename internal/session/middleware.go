package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// CookieMaxAge matches the default lifetime of a persisted cart ID.
const CookieMaxAge = 30 * 24 * time.Hour

// Middleware resolves the visitor's session ID and stores it in the request
// context for handlers (see FromContext). The ID is echoed back in the
// Cart-Session response header so scripted clients can pin it.
//
// A malformed Cart-Session header is rejected with 400; a malformed cookie
// is replaced with a new session.
func Middleware(secureCookie bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolve(w, r, secureCookie)
			if err != nil {
				logger.Warn("invalid Cart-Session header",
					slog.String("header", r.Header.Get(HeaderName)),
					slog.String("error", err.Error()))
				writeSessionError(w, "Invalid Cart-Session header: "+err.Error())
				return
			}

			if v, err := FormatHeader(id); err == nil {
				w.Header().Set(HeaderName, v)
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// resolve picks the session ID from the header, then the cookie, and
// otherwise issues a new cookie.
func resolve(w http.ResponseWriter, r *http.Request, secure bool) (string, error) {
	if header := r.Header.Get(HeaderName); header != "" {
		return ParseHeader(header)
	}

	if c, err := r.Cookie(CookieName); err == nil && ValidID(c.Value) {
		return c.Value, nil
	}

	id := NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// isExemptPath returns true for infrastructure paths that never touch a cart.
func isExemptPath(path string) bool {
	return path == "/health" || path == "/healthz"
}

func writeSessionError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = "INVALID_SESSION"
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}
