package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
	Device   struct {
		Identifier string `json:"identifier" binding:"required"`
		Name       string `json:"name"`
		Platform   string `json:"platform"`
		Version    string `json:"version"`
	} `json:"device" binding:"required"`
}

type authResponse struct {
	AccessToken     string `json:"accessToken"`
	SessionPublicID string `json:"sessionId"`
	ExpiresAt       int64  `json:"expiresAt"`
}

// useCookies / useSessionCookies toggle whether the access token is also set
// as a cookie on the response, per §6's login query parameters; the bearer
// token is always returned in the body either way.
func registerAuthRoutes(rg *gin.RouterGroup, svc *auth.Service) {
	rg.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.Wrap(apperrors.InvalidArgument, err, "invalid login request"))
			return
		}

		result, err := svc.Login(req.Email, req.Password, auth.DeviceRegistration{
			Identifier: req.Device.Identifier,
			Name:       req.Device.Name,
			Platform:   req.Device.Platform,
			Version:    req.Device.Version,
		}, req.Remember)
		if err != nil {
			respondError(c, err)
			return
		}

		_, useCookies := c.GetQuery("useCookies")
		_, useSessionCookies := c.GetQuery("useSessionCookies")
		if useCookies || useSessionCookies {
			setAuthCookie(c, result)
		}
		c.JSON(http.StatusOK, toAuthResponse(result))
	})

	rg.POST("/refresh", func(c *gin.Context) {
		token := bearerFromRequest(c)
		if token == "" {
			respondError(c, apperrors.New(apperrors.Unauthenticated, "missing bearer token"))
			return
		}
		result, err := svc.Refresh(token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toAuthResponse(result))
	})

	rg.POST("/logout", func(c *gin.Context) {
		token := bearerFromRequest(c)
		if token == "" {
			respondError(c, apperrors.New(apperrors.Unauthenticated, "missing bearer token"))
			return
		}
		if err := svc.Logout(token); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func bearerFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func setAuthCookie(c *gin.Context, result *auth.AuthResult) {
	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	c.SetCookie("nexa_access_token", result.AccessToken, maxAge, "/", "", false, true)
}

func toAuthResponse(result *auth.AuthResult) authResponse {
	return authResponse{
		AccessToken:     result.AccessToken,
		SessionPublicID: result.SessionPublicID,
		ExpiresAt:       result.ExpiresAt.Unix(),
	}
}
