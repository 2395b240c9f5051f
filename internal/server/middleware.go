package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	obscontext "github.com/smallbiznis/invoicedesk/internal/observability/context"
)

const (
	headerAuthorization = "Authorization"
	contextPrincipalKey = "principal"
)

// BearerAuth verifies the Authorization bearer token. A missing token is
// answered with 401 and an invalid or expired one with 403.
func (s *Server) BearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader(headerAuthorization))
		if raw == "" {
			AbortWithError(c, authdomain.ErrMissingToken)
			return
		}

		principal, err := s.authsvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPrincipalKey, principal)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), principal.UserID, principal.Username))
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func principalFrom(c *gin.Context) *authdomain.Principal {
	v, ok := c.Get(contextPrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*authdomain.Principal)
	return p
}
