package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/middleware"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
	"sentinel-cctv/be/utils"
)

type AuthHandler struct {
	store        store.Store
	jwtConfig    config.JWTConfig
	passwordMode string
	now          func() time.Time
	log          *zap.Logger
}

func NewAuthHandler(s store.Store, jwtConfig config.JWTConfig, passwordMode string, now func() time.Time) *AuthHandler {
	return &AuthHandler{
		store:        s,
		jwtConfig:    jwtConfig,
		passwordMode: passwordMode,
		now:          now,
		log:          logger.GetLoggerWith("auth"),
	}
}

type LoginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Login checks email and password. Failed attempts are not counted.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindInsert(c, loginSchema, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.log.Info("login failed", zap.String("reason", "unknown email"))
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		respondError(c, h.log, "User", err)
		return
	}

	if !utils.CheckPassword(h.passwordMode, user.Password, req.Password) {
		h.log.Info("login failed", zap.String("reason", "wrong password"), zap.Uint("user_id", user.ID))
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := middleware.GenerateToken(user, h.jwtConfig.Secret, h.jwtConfig.Issuer, h.jwtConfig.Expiry, h.now())
	if err != nil {
		respondError(c, h.log, "User", err)
		return
	}

	h.log.Info("login succeeded", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusOK, LoginResponse{User: user, Token: token})
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, "User", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout is a no-op for stateless tokens; clients discard theirs.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
