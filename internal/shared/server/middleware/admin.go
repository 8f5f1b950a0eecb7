package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quickapply-backend/internal/shared/server/respond"
)

// AdminKeyHeader carries the operator API key.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey rejects requests whose X-Admin-Key does not match key.
// An empty key rejects everything.
func AdminKey(key string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(key))
	return func(c *gin.Context) {
		got := []byte(strings.TrimSpace(c.GetHeader(AdminKeyHeader)))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin key", nil)
			return
		}
		c.Next()
	}
}
