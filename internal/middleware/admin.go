package middleware

import (
	"strings"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/utils"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/gin-gonic/gin"
)

// VerifyAdmin checks an admin credential against the configured shared
// secret. Accepted forms, in order: the explicit credential (request body or
// X-Admin-Credential header) and an admin session JWT in the Authorization
// header. An empty configured secret fails closed with ConfigurationError.
func VerifyAdmin(c *gin.Context, adminSecret, bodyCredential string) error {
	if adminSecret == "" {
		return response.NewConfigurationError("admin secret is not configured")
	}

	credential := bodyCredential
	if credential == "" {
		credential = c.GetHeader("X-Admin-Credential")
	}
	if credential != "" {
		if utils.VerifyAdminSecret(adminSecret, credential) {
			return nil
		}
		return response.NewUnauthorized("invalid admin credential")
	}

	if token := bearerToken(c); token != "" {
		claims, err := utils.ParseSessionToken(token)
		if err == nil && claims.Role == "admin" {
			return nil
		}
		return response.NewUnauthorized("invalid or expired admin session")
	}

	return response.NewUnauthorized("admin credential required")
}

// AdminRequired gates routes that carry no credential in their body.
func AdminRequired(adminSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := VerifyAdmin(c, adminSecret, ""); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// BearerToken is the exported variant used by the integration export handler.
func BearerToken(c *gin.Context) string {
	return bearerToken(c)
}
