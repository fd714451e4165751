package middleware

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	appctx "retailops/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderBusiness  = "X-Business-ID"
	HeaderUserEmail = "X-User-Email"
)

// UserContext extracts the authenticated caller identity from trusted
// gateway headers and adds it to the request context.
//
// Authentication itself happens upstream; this service only requires
// that the gateway forwarded who is calling and for which business.
// The identity is available to the domain layer via appctx.GetUserID /
// appctx.GetBusinessID.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		businessID := c.GetHeader(HeaderBusiness)

		if userID == "" || businessID == "" {
			_ = c.Error(apperror.NewInvalidRequest("X-User-ID and X-Business-ID headers are required"))
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
			UserID:     userID,
			BusinessID: businessID,
			Email:      c.GetHeader(HeaderUserEmail),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
