// Package httpapi implements the HTTP streaming and auth endpoints from §6,
// routed with gin the way the teacher's router package groups routes by
// feature under an /api/v1 RouterGroup.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/auth"
)

// errorBody is the JSON shape every failed request returns.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// respondError maps an apperrors.Error (or an untyped error, defaulted to
// Internal) onto its HTTP status and JSON body, attaching WWW-Authenticate
// for Unauthenticated per RFC 6750 (§6's 401 requirement).
func respondError(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		appErr = apperrors.Wrap(apperrors.Internal, err, "internal error")
	}

	if appErr.Kind == apperrors.Unauthenticated {
		c.Header("WWW-Authenticate", auth.WWWAuthenticate(appErr))
	}

	c.JSON(appErr.HTTPStatus(), errorBody{
		Kind:    string(appErr.Kind),
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}
