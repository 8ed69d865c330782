// Package middlewarectx содержит HTTP middleware сервиса: проверку JWT
// с сохранением владельца сессии в контексте и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/lib/jwt"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Owner — ключ владельца сессии в контексте.
const Owner Key = "owner"

// TokenParser проверяет JWT и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware пропускает запрос только с валидным токеном Bearer
// и кладёт владельца в контекст.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := WithOwner(r.Context(), models.Owner{ID: claims.UserUID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithOwner возвращает контекст с владельцем.
func WithOwner(ctx context.Context, owner models.Owner) context.Context {
	return context.WithValue(ctx, Owner, owner)
}

// OwnerFrom достаёт владельца из контекста.
func OwnerFrom(ctx context.Context) (models.Owner, bool) {
	owner, ok := ctx.Value(Owner).(models.Owner)
	return owner, ok && owner.ID != ""
}
