package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/whattoeat-linebot/internal/sentry"
)

// readinessTimeout bounds the database ping behind /readyz.
const readinessTimeout = 3 * time.Second

// rootBody is what LINE console "Verify" and uptime probes see on GET /.
const rootBody = "<p>Success</p>"

func (a *Application) registerRoutes(router *gin.Engine) {
	router.GET("/", a.index)
	router.HEAD("/", a.index)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.POST("/callback", a.webhookHandler.Handle)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
}

func (a *Application) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rootBody))
}

// livenessCheck never touches dependencies; it only proves the process serves HTTP.
func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"cache":    a.getCacheStats(ctx),
		"features": a.getFeatures(),
	})
}

func (a *Application) getCacheStats(ctx context.Context) map[string]int {
	stats := make(map[string]int)
	if count, err := a.db.CountMenuLinks(ctx); err == nil {
		stats["menu_links"] = count
	} else {
		a.logger.WithError(err).Warn("Failed to count menu links in cache stats")
	}
	return stats
}

func (a *Application) getFeatures() map[string]bool {
	features := map[string]bool{
		"sentry":        sentry.IsEnabled(),
		"metrics_auth":  false,
		"nlu_fallbacks": a.classifier != nil && a.classifier.Len() > 1,
	}
	if a.cfg != nil {
		features["metrics_auth"] = a.cfg.MetricsAuthEnabled()
		features["dialogflow"] = a.cfg.DialogflowClientToken != ""
		features["gemini"] = a.cfg.GeminiAPIKey != ""
		features["groq"] = a.cfg.GroqAPIKey != ""
	}
	return features
}
