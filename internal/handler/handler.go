package handler

import (
	"context"
	"net/http"

	"chart-prophet/internal/chart"
	"chart-prophet/internal/domain"
	"chart-prophet/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxUploadBytes = 16 << 20

type ChartAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) domain.AnalysisResult
}

type Handler struct {
	tracer         trace.Tracer
	analyzer       ChartAnalyzer
	tradeService   *service.TradeService
	renderer       *chart.Renderer
	maxUploadBytes int64
}

func New(
	tracer trace.Tracer,
	analyzer ChartAnalyzer,
	tradeService *service.TradeService,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		tracer:         tracer,
		analyzer:       analyzer,
		tradeService:   tradeService,
		renderer:       chart.NewRenderer(),
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/analyze", h.AnalyzeChart)

	api := r.Group("/api")
	api.GET("/trades", h.ListTrades)
	api.POST("/trades", h.CreateTrade)
	api.GET("/trades/export", h.ExportTrades)
	api.GET("/trades/:id", h.GetTrade)
	api.PUT("/trades/:id", h.UpdateTrade)
	api.DELETE("/trades/:id", h.DeleteTrade)
	api.GET("/stats", h.GetStats)
	api.GET("/stats/equity.png", h.GetEquityCurve)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
