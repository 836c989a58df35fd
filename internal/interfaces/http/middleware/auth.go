package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
	"github.com/turtacn/crn/pkg/logger"
)

// BusinessChecker reports whether a tenant is registered.
type BusinessChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// TenantClaims are the claims of a tenant bearer token.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// extractBearer extracts the token from the Authorization header.
func extractBearer(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], strings.TrimSpace(constants.BearerPrefix)) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// TenantAuth verifies an HS256 bearer token, requires a tenant_id claim naming a
// registered business, and puts the tenant id and role into the request context.
func TenantAuth(secret []byte, issuer string, businesses BusinessChecker, log logger.Logger) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		tokenStr := extractBearer(c.GetHeader(constants.HeaderAuthorization))
		if tokenStr == "" {
			abort(c, errors.ErrUnauthorized("bearer token required"))
			return
		}

		claims := &TenantClaims{}
		if _, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		}); err != nil {
			log.Warn(c.Request.Context(), "JWT verification failed", logger.Error(err))
			abort(c, errors.ErrUnauthorized("invalid token"))
			return
		}
		if claims.TenantID == "" {
			abort(c, errors.ErrUnauthorized("tenant_id claim is required"))
			return
		}

		ok, err := businesses.Exists(c.Request.Context(), claims.TenantID)
		if err != nil {
			abort(c, err)
			return
		}
		if !ok {
			log.Warn(c.Request.Context(), "token for unknown business", logger.String("tenant_id", claims.TenantID))
			abort(c, errors.ErrUnauthorized("unknown tenant"))
			return
		}

		c.Set(string(constants.ContextKeyTenantID), claims.TenantID)
		c.Set(string(constants.ContextKeyRole), claims.Role)
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyTenantID, claims.TenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(string(constants.ContextKeyRole)) != constants.RoleAdmin {
			abort(c, errors.ErrForbidden("admin role required"))
			return
		}
		c.Next()
	}
}

// TenantID returns the authenticated tenant.
func TenantID(c *gin.Context) string {
	return c.GetString(string(constants.ContextKeyTenantID))
}

func abort(c *gin.Context, err error) {
	dto.SendError(c, err)
	c.Abort()
}
