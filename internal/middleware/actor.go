package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const actorKey contextKey = "actor"

// DefaultActor is used for audit records when the request carries no
// authenticated identity.
const DefaultActor = "admin"

// ActorMiddleware attaches an actor label to the request context for audit
// trails. A valid Bearer token contributes its subject claim; anything else
// falls back to the default. The middleware never rejects a request: there
// is no authorization model here, only attribution.
func ActorMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := DefaultActor

			if subject, ok := bearerSubject(r, jwtSecret, logger); ok {
				actor = subject
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerSubject(r *http.Request, jwtSecret string, logger *zap.Logger) (string, bool) {
	if jwtSecret == "" {
		return "", false
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		logger.Debug("Ignoring invalid bearer token", zap.Error(err))
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", false
	}

	return subject, true
}

// GetActor extracts the actor label from the request context, defaulting
// when no middleware ran.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
