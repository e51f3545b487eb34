package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-clearance-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// WithResponseMeta initialises response metadata storage on the request
// context and seeds it with the request id. It must run after requestid.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := ensureMeta(c)
		if id := requestid.Value(c); id != "" {
			meta["requestId"] = id
		}
		c.Next()
	}
}

// SetMeta records a value for the response meta block.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
