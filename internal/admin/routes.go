package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/manifestd/internal/auth"
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *Admin) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(a.appeared).String(),
			"component": "manifestd",
			"version":   Version,
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router.GET("/ready", func(c *gin.Context) {
		store := a.store()
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": "no manifest loaded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"root":   store.Root().Tag(),
			"nodes":  store.Len(),
			"uptime": time.Since(a.appeared).String(),
		})
	})

	protected := a.router.Group("/")
	if a.token != nil {
		protected.Use(requireToken(a.token))
	}

	protected.GET("/validate", func(c *gin.Context) {
		store := a.store()
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no manifest loaded"})
			return
		}
		report := a.engine.Run(store)
		c.JSON(http.StatusOK, gin.H{
			"ok":        report.OK(),
			"rules":     report.Rules,
			"evaluated": report.Evaluated,
			"failures":  report.Failures,
		})
	})

	protected.GET("/rules", func(c *gin.Context) {
		bound := a.engine.Rules()
		out := make([]gin.H, 0, len(bound))
		for _, r := range bound {
			out = append(out, gin.H{
				"predicate": r.Name,
				"nodepath":  r.Path.String(),
				"message":   r.Spec.Message,
			})
		}
		c.JSON(http.StatusOK, gin.H{"count": len(out), "rules": out})
	})

	// /query?path=<nodepath> or /query?key=<key> mirrors one socket request.
	protected.GET("/query", func(c *gin.Context) {
		store := a.store()
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no manifest loaded"})
			return
		}
		nodepath := c.Query("path")
		if key, ok := c.GetQuery("key"); ok && nodepath == "" {
			nodepath = tree.KeyPath(key)
		}
		if nodepath == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "path or key is required"})
			return
		}
		values, err := store.Values(nodepath)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, tree.ErrMalformedPath) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error(), "path": nodepath})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"path":   nodepath,
			"count":  len(values),
			"values": values,
		})
	})
}

// requireToken rejects requests without a valid bearer token.
func requireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Check(v, c.GetHeader("Authorization")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func (a *Admin) store() *tree.Store {
	if a.trees == nil {
		return nil
	}
	return a.trees.Load()
}
