package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// login handles POST /api/auth/login.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	secure := s.cfg.SecureCookies()
	setTokenCookie(c, common.AccessTokenCookieName, pair.AccessToken, s.cfg.AccessTokenTTL, secure)
	setTokenCookie(c, common.RefreshTokenCookieName, pair.RefreshToken, s.cfg.RefreshTokenTTL, secure)

	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// refresh handles GET and POST /api/auth/refresh.
func (s *Server) refresh(c *gin.Context) {
	token := tokenCookie(c, common.RefreshTokenCookieName)

	access, err := s.users.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	setTokenCookie(c, common.AccessTokenCookieName, access, s.cfg.AccessTokenTTL, s.cfg.SecureCookies())
	c.JSON(http.StatusOK, gin.H{"message": "Access token refreshed"})
}

// logout handles POST /api/auth/logout. The cookies are cleared even when
// revocation fails.
func (s *Server) logout(c *gin.Context) {
	token := tokenCookie(c, common.RefreshTokenCookieName)

	if err := s.users.Logout(c.Request.Context(), token); err != nil {
		s.logger.Warn(c.Request.Context(), "logout revocation failed", "error", err)
	}

	secure := s.cfg.SecureCookies()
	clearTokenCookie(c, common.AccessTokenCookieName, secure)
	clearTokenCookie(c, common.RefreshTokenCookieName, secure)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// register handles POST /api/users.
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

// dashboard handles GET /dashboard behind the gate.
func (s *Server) dashboard(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		c.Redirect(http.StatusFound, s.cfg.LoginPath)
		return
	}

	user, err := s.users.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.Redirect(http.StatusFound, s.cfg.LoginPath)
			return
		}
		writeError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
