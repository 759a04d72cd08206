package api

import (
	_ "embed"
	"net/http"
	"time"

	"pricerelay/internal/relay/query"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed static/index.html
var dashboardHTML []byte

// NewRouter builds the read-only query API and the dashboard page.
func NewRouter(svc *query.Service, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders:   []string{"Content-Length", RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(NoCache())

	h := NewPriceHandler(svc)

	api := r.Group("/api")
	{
		api.GET("/prices", h.GetPrices)
		api.GET("/prices/:symbol", h.GetPrice)
		api.GET("/history/:symbol", h.GetHistory)
		api.GET("/health", h.GetHealth)
	}

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", dashboardHTML)
	})

	return r
}
