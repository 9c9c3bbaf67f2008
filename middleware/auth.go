package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
)

// Context keys set for authenticated requests.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for u valid for ttl.
func GenerateToken(u *models.User, secret, issuer string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies tokenString and checks its expiry against now, the
// same clock GenerateToken was given. A nil now means time.Now.
func ParseToken(tokenString, secret string, now func() time.Time) (*Claims, error) {
	if now == nil {
		now = time.Now
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// extractToken looks for a bearer token in the Authorization header, the
// token query parameter (used by <video> tags and websocket clients) and the
// "authorization.bearer.<token>" websocket subprotocol, in that order.
func extractToken(c *gin.Context) string {
	if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	for _, proto := range strings.Split(c.GetHeader("Sec-WebSocket-Protocol"), ",") {
		parts := strings.SplitN(strings.TrimSpace(proto), ".", 3)
		if len(parts) == 3 && parts[0] == "authorization" && parts[1] == "bearer" {
			return parts[2]
		}
	}
	return ""
}

// AuthMiddleware authenticates requests carrying a token. When enforce is
// false requests without a valid token pass through anonymously; when true
// they are rejected with 401. Expiry is checked against now.
func AuthMiddleware(secret string, enforce bool, now func() time.Time) gin.HandlerFunc {
	log := logger.GetLoggerWith("auth")
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			if enforce {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization required"})
				return
			}
			c.Next()
			return
		}

		claims, err := ParseToken(tokenString, secret, now)
		if err != nil {
			log.Debug("rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if enforce {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
				return
			}
			c.Next()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user of the request, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
