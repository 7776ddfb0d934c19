package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "cart_session"

	maxSessionIDLength = 128
)

// CartSessionOptions controls the cookie issued for new sessions.
type CartSessionOptions struct {
	CookieSecure bool
	CookieMaxAge time.Duration
}

// CartSession resolves the cart session from the header or cookie, minting a
// new one when neither carries a usable id. The id is echoed on the response
// and refreshed in the cookie.
func CartSession(opts CartSessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := resolveSessionID(r)
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			w.Header().Set(CartSessionHeader, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     CartSessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(opts.CookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   opts.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSessionID(r *http.Request) string {
	if id := opaqueToken(r.Header.Get(CartSessionHeader), maxSessionIDLength); id != "" {
		return id
	}
	if cookie, err := r.Cookie(CartSessionCookie); err == nil {
		return opaqueToken(cookie.Value, maxSessionIDLength)
	}
	return ""
}

// opaqueToken returns raw trimmed when it is a non-empty run of at most maxLen
// letters, digits, dashes or underscores, and "" otherwise.
func opaqueToken(raw string, maxLen int) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxLen {
		return ""
	}
	for _, ch := range id {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return ""
		}
	}
	return id
}
