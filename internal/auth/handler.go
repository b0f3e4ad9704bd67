package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/familyvault/familyvault/internal/config"
	"github.com/familyvault/familyvault/internal/tokens"
	"github.com/familyvault/familyvault/internal/users"
	"github.com/familyvault/familyvault/pkg/logger"
	"github.com/familyvault/familyvault/pkg/middleware"
)

// Handler serves local account registration and login. OIDC logins bypass
// this entirely; their tokens are verified by the auth middleware and the
// account is upserted from claims.
type Handler struct {
	cfg   *config.Config
	users *users.Service
}

func NewHandler(cfg *config.Config, u *users.Service) *Handler {
	return &Handler{cfg: cfg, users: u}
}

// Register mounts login/register on the public group and /auth/me on the
// authenticated group.
func (h *Handler) Register(public, authed *gin.RouterGroup) {
	public.POST("/auth/register", h.register)
	public.POST("/auth/login", h.login)
	authed.GET("/auth/me", h.me)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name, email and a password of at least 8 characters are required"})
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		logger.Errorf("registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "registration failed"})
		return
	}
	token, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Errorf("token mint failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "token": token, "user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}
		logger.Errorf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}
	token, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Errorf("token mint failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": u})
}

func (h *Handler) me(c *gin.Context) {
	sub := middleware.Subject(c)
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		return
	}
	u, err := h.users.GetBySub(c.Request.Context(), sub)
	if err != nil || u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
