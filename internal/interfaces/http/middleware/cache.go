package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/fablecraft/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CacheHeader = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"

	// responses larger than this are served but not stored
	maxCachedBody = 1 << 20
)

// CacheObserver counts lookups
type CacheObserver interface {
	ObserveCache(hit bool)
}

// ResponseCacheConfig configures the response cache middleware
type ResponseCacheConfig struct {
	Store      cache.ResponseStore
	TTL        time.Duration
	PathPrefix string
	Observer   CacheObserver
	Logger     *zap.Logger
}

// ResponseCache serves repeated GETs of an owner from the store. It must
// run after authentication: anonymous requests are never cached. Any other
// method under the prefix drops the owner's entries.
func ResponseCache(cfg ResponseCacheConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1/projects"
	}

	return func(c *gin.Context) {
		owner := GetJWTUserID(c)
		if cfg.Store == nil || owner == "" || !strings.HasPrefix(c.Request.URL.Path, cfg.PathPrefix) {
			c.Next()
			return
		}

		if c.Request.Method != http.MethodGet {
			c.Next()
			invalidate(c, cfg, owner)
			return
		}

		ctx := c.Request.Context()
		key := c.Request.URL.RequestURI()

		entry, ok, err := cfg.Store.Get(ctx, owner, key)
		if err != nil {
			cfg.Logger.Warn("Response cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			observe(cfg, true)
			c.Header(CacheHeader, cacheHit)
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()
			return
		}
		observe(cfg, false)

		w := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header(CacheHeader, cacheMiss)
		c.Next()

		if w.Status() != http.StatusOK || w.overflow || !isJSON(w.Header().Get("Content-Type")) || w.Header().Get("Content-Disposition") != "" {
			return
		}
		err = cfg.Store.Set(ctx, owner, key, &cache.Entry{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
			StoredAt:    time.Now(),
		}, cfg.TTL)
		if err != nil {
			cfg.Logger.Warn("Response cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func invalidate(c *gin.Context, cfg ResponseCacheConfig, owner string) {
	removed, err := cfg.Store.InvalidateOwner(c.Request.Context(), owner)
	if err != nil {
		cfg.Logger.Warn("Response cache invalidation failed", zap.String("owner_id", owner), zap.Error(err))
		return
	}
	if removed > 0 {
		cfg.Logger.Debug("Response cache invalidated",
			zap.String("owner_id", owner),
			zap.String("method", c.Request.Method),
			zap.Int("removed", removed))
	}
}

func observe(cfg ResponseCacheConfig, hit bool) {
	if cfg.Observer != nil {
		cfg.Observer.ObserveCache(hit)
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

// bodyCaptureWriter copies the body while it is written
type bodyCaptureWriter struct {
	gin.ResponseWriter
	buf      bytes.Buffer
	overflow bool
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.capture(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *bodyCaptureWriter) capture(b []byte) {
	if w.overflow {
		return
	}
	if w.buf.Len()+len(b) > maxCachedBody {
		w.overflow = true
		w.buf.Reset()
		return
	}
	w.buf.Write(b)
}
