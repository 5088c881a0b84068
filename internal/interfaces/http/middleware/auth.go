// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

const (
	ctxIdentity   = "identity"
	ctxUserID     = "user_id"
	ctxUserEmail  = "user_email"
	ctxIsAdmin    = "is_admin"
	ctxGuestToken = "guest_token"
)

// ResolveIdentity tags every request as a user or a guest. A bearer token
// makes the caller a user; a token that is present but invalid is rejected.
// Otherwise the cart token from the header or cookie identifies a guest,
// and a new one is minted when missing.
func ResolveIdentity(jwtManager *auth.JWTManager, cartCfg config.CartConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestToken := readGuestToken(c, cartCfg)

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString := auth.ExtractTokenFromHeader(authHeader)
			if tokenString == "" {
				response.Error(c, apperr.Errorf(apperr.EUNAUTHORIZED, "auth.resolve", "invalid authorization header format"))
				return
			}
			claims, err := jwtManager.ValidateAccessToken(tokenString)
			if err != nil {
				response.Error(c, apperr.Errorf(apperr.EUNAUTHORIZED, "auth.resolve", "invalid or expired token"))
				return
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxUserEmail, claims.Email)
			c.Set(ctxIsAdmin, claims.IsAdmin)
			if guestToken != "" {
				// kept for the login merge
				c.Set(ctxGuestToken, guestToken)
			}
			setIdentity(c, identity.User(claims.UserID))
			c.Next()
			return
		}

		if guestToken == "" {
			guestToken = identity.NewGuestToken()
			SetCartToken(c, cartCfg, guestToken)
		}
		c.Set(ctxGuestToken, guestToken)
		setIdentity(c, identity.Guest(guestToken))
		c.Next()
	}
}

// RequireUser rejects guests
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserIDFromContext(c); !ok {
			response.Error(c, apperr.Errorf(apperr.EUNAUTHORIZED, "auth.require_user", "authentication required"))
			return
		}
		c.Next()
	}
}

// AdminMiddleware ensures the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserIDFromContext(c); !ok {
			response.Error(c, apperr.Errorf(apperr.EUNAUTHORIZED, "auth.admin", "authentication required"))
			return
		}
		if !IsAdminFromContext(c) {
			response.Error(c, apperr.Errorf(apperr.EFORBIDDEN, "auth.admin", "admin access required"))
			return
		}
		c.Next()
	}
}

// SetCartToken hands a guest cart token to the client as a cookie and a
// response header.
func SetCartToken(c *gin.Context, cartCfg config.CartConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cartCfg.CookieName, token, cartCfg.CookieMaxAge, "/", "", cartCfg.CookieSecure, true)
	c.Header(cartCfg.HeaderName, token)
}

func readGuestToken(c *gin.Context, cartCfg config.CartConfig) string {
	token := c.GetHeader(cartCfg.HeaderName)
	if token == "" {
		token, _ = c.Cookie(cartCfg.CookieName)
	}
	if _, err := uuid.Parse(token); err != nil {
		return ""
	}
	return token
}

func setIdentity(c *gin.Context, id identity.Identity) {
	c.Set(ctxIdentity, id)
}

// GetIdentity returns the caller resolved by ResolveIdentity
func GetIdentity(c *gin.Context) identity.Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(identity.Identity); ok {
			return id
		}
	}
	return identity.Identity{}
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID := c.GetUint(ctxUserID)
	return userID, userID != 0
}

// GetUserEmailFromContext extracts user email from gin context
func GetUserEmailFromContext(c *gin.Context) (string, bool) {
	email := c.GetString(ctxUserEmail)
	return email, email != ""
}

// IsAdminFromContext checks if user is admin from gin context
func IsAdminFromContext(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

// GuestTokenFromContext returns the guest cart token presented with the request
func GuestTokenFromContext(c *gin.Context) string {
	return c.GetString(ctxGuestToken)
}
