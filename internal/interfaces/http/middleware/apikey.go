package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/interfaces/http/dto"
)

// APIKeyHeader is the header carrying the static API key
const APIKeyHeader = "X-API-KEY"

// APIKeyMessage is returned when the API key is missing or wrong
const APIKeyMessage = "Неверный или отсутствующий ключ API"

// APIKey guards a route group with a static key compared in constant time
func APIKey(expected string) gin.HandlerFunc {
	want := []byte(expected)
	return func(c *gin.Context) {
		got := c.GetHeader(APIKeyHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, APIKeyMessage, GetRequestID(c)))
			return
		}
		c.Next()
	}
}
