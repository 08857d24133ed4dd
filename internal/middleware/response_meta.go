package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	metaStartedAtKey = "response_meta_started_at"
	cacheHitKey      = "cache_hit"
)

// WithResponseMeta marks the request start so handlers can report processing time in meta.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartedAtKey, time.Now())
		c.Next()
	}
}

// SetCacheHit records whether the week grid came from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetMeta stores one metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta, _ := c.Value(responseMetaKey).(map[string]interface{})
	if meta == nil {
		meta = make(map[string]interface{})
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// ExtractMeta returns the values set for this response, or nil when a handler set none.
// processing_time_ms is stamped at extraction time, which is when the envelope is written.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, _ := c.Value(responseMetaKey).(map[string]interface{})
	if len(meta) == 0 {
		return nil
	}
	if started, ok := c.Value(metaStartedAtKey).(time.Time); ok {
		meta["processing_time_ms"] = time.Since(started).Milliseconds()
	}
	return meta
}
