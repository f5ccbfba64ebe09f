package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hrbackend/internal/workflow"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by RequireRole.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextUserName = "userName"

	accessTokenCookie = "access_token"
)

// Claims is the authenticated identity carried by an access token.
type Claims struct {
	UserID uuid.UUID
	Role   workflow.Role
	Name   string
}

// ParseToken validates an HS256 token and extracts its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	return &Claims{UserID: userID, Role: workflow.Role(role), Name: name}, nil
}

// Auth authenticates requests with the configured signing secret.
type Auth struct {
	secret        []byte
	secureCookies bool
}

// NewAuth builds the middleware. secureCookies switches cookies to
// SameSite=None; Secure for cross-origin production deployments.
func NewAuth(secret string, secureCookies bool) *Auth {
	return &Auth{secret: []byte(secret), secureCookies: secureCookies}
}

// Secret returns the signing secret, e.g. for the websocket endpoint.
func (a *Auth) Secret() []byte {
	return a.secret
}

// SetTokenCookie stores the access token in an HttpOnly cookie.
func (a *Auth) SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	a.setCookie(c, token, int(ttl.Seconds()))
}

// ClearTokenCookie removes the access token cookie.
func (a *Auth) ClearTokenCookie(c *gin.Context) {
	a.setCookie(c, "", -1)
}

func (a *Auth) setCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if a.secureCookies {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, value, maxAge, "/", "", a.secureCookies, true)
}

func tokenFromRequest(c *gin.Context) (string, error) {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// RequireRole validates the access token and, when roles are given, checks the
// caller holds one of them. With no roles any valid staff account passes.
func (a *Auth) RequireRole(allowedRoles ...workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		claims, err := ParseToken(tokenString, a.secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}
		if !claims.Role.IsValid() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		if len(allowedRoles) > 0 {
			roleAllowed := false
			for _, role := range allowedRoles {
				if claims.Role == role {
					roleAllowed = true
					break
				}
			}
			if !roleAllowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserName, claims.Name)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or uuid.Nil.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
