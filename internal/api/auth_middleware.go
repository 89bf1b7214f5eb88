package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"wardrobe/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	currentUserContextKey = "current-user"
)

// RequestUser 存储请求上下文中的认证用户信息
type RequestUser struct {
	UID   string
	Email string
	Role  string
}

// AuthMiddleware JWT 认证中间件。Authorization 头可带或不带 "Bearer " 前缀。
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeTokenMissing,
				Message: "Token is missing",
			})
			return
		}

		claims, err := h.authManager.ParseToken(tokenString)
		if err != nil {
			logrus.WithError(err).Warn("failed to parse jwt token")
			if auth.IsExpired(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
					Code:    ErrCodeSessionExpired,
					Message: "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "Invalid token",
			})
			return
		}

		requestUser := &RequestUser{
			UID:   claims.UID,
			Email: claims.Email,
			Role:  claims.Role,
		}

		if h.cfg.AuthRequireUser && h.repo != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()

			user, err := h.repo.GetUserByUID(ctx, claims.UID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
						Code:    ErrCodeUserNotFound,
						Message: "用户不存在",
					})
					return
				}
				logrus.WithError(err).WithField("uid", claims.UID).Error("failed to load user")
				c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
					Code:    ErrCodeInternalError,
					Message: "验证用户失败",
				})
				return
			}
			if !user.IsActive {
				c.AbortWithStatusJSON(http.StatusForbidden, APIError{
					Code:    ErrCodeUserDisabled,
					Message: "账户已被禁用",
				})
				return
			}
			requestUser.Email = user.Email
			requestUser.Role = user.Role
		}

		c.Set(currentUserContextKey, requestUser)
		c.Next()
	}
}

func bearerToken(header string) string {
	trimmed := strings.TrimSpace(header)
	if len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "Bearer") &&
		(len(trimmed) == 6 || trimmed[6] == ' ') {
		trimmed = strings.TrimSpace(trimmed[6:])
	}
	return trimmed
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}
