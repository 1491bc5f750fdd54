package auth

import (
	"context"
	"net/http"
	"strings"

	"cleanserve/internal/models"
	"cleanserve/internal/utils"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	userRoleKey contextKey = "user_role"
	languageKey contextKey = "language"
)

var msgUnauthorized = utils.Message{
	En: "Authentication required",
	Ar: "المصادقة مطلوبة",
}

var msgForbidden = utils.Message{
	En: "You do not have permission to perform this action",
	Ar: "ليس لديك صلاحية لتنفيذ هذا الإجراء",
}

// Middleware verifies the bearer token and stores identity, role and
// resolved language in the request context.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := RequestLanguage(r)

			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse(msgUnauthorized.Pick(lang), nil))
				return
			}

			claims, err := VerifyToken(secret, rawToken)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse(msgUnauthorized.Pick(lang), nil))
				return
			}

			// The stored user preference wins over Accept-Language.
			if claims.Language != "" {
				lang = claims.Language
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, userRoleKey, claims.Role)
			ctx = context.WithValue(ctx, languageKey, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route group behind a role check. It must run after
// Middleware.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[Role(r.Context())] {
				utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse(msgForbidden.Pick(Language(r.Context())), nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID extracts the authenticated user id from the context.
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}

// Role extracts the authenticated role from the context.
func Role(ctx context.Context) models.UserRole {
	if role, ok := ctx.Value(userRoleKey).(models.UserRole); ok {
		return role
	}
	return ""
}

// Language returns the resolved response language, defaulting to English.
func Language(ctx context.Context) string {
	if lang, ok := ctx.Value(languageKey).(string); ok && lang != "" {
		return lang
	}
	return utils.LangEnglish
}

// RequestLanguage negotiates the language from the Accept-Language header.
func RequestLanguage(r *http.Request) string {
	header := strings.ToLower(r.Header.Get("Accept-Language"))
	if strings.HasPrefix(header, "ar") {
		return utils.LangArabic
	}
	return utils.LangEnglish
}
