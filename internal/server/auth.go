package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
)

// isoMillis is the expiresAt layout, ISO-8601 in UTC with milliseconds.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "user registered",
		"userId":  user.ID.String(),
	})
}

func (s *Server) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	username := strings.TrimSpace(req.Username)
	if !s.loginLimiter.Allow(ctx, c.ClientIP(), username) {
		s.obsMetrics.RecordLoginAttempt(ctx, "throttled")
		AbortWithError(c, ErrRateLimited)
		return
	}

	result, err := s.authsvc.Login(ctx, authdomain.LoginRequest{
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		s.obsMetrics.RecordLoginAttempt(ctx, "failure")
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordLoginAttempt(ctx, "success")

	c.JSON(http.StatusOK, gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.UTC().Format(isoMillis),
	})
}

func (s *Server) Profile(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "user profile",
		"user":    principal,
	})
}
