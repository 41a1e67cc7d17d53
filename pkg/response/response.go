package response

import (
	"errors"
	"net/http"

	"anoa.com/donorhub/pkg/apperror"
	"anoa.com/donorhub/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ContextUserID = "user_id"
	ContextLogger = "logger"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := c.GetString(ContextUserID)
	if userIDStr == "" {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError writes the standard {"error": ...} body for err.
func ResponseError(c *gin.Context, err error) {
	var rlErr *ratelimiter.RateLimitError
	if errors.As(err, &rlErr) {
		c.Header("Retry-After", rlErr.RetryAfterHeader())
	}

	code := apperror.MapErrorToStatus(err)
	if code == http.StatusInternalServerError {
		loggerFrom(c).Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ContextLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
