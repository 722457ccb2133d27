package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"chart-prophet/internal/vision"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

func allowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	_, ok := allowedExtensions[ext]
	return ok
}

// AnalyzeChart godoc
// @Summary      Analyze a chart image
// @Description  Sends the uploaded chart to the vision model and returns the structured analysis
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Param        chart  formData  file  true  "Chart image (png, jpg, jpeg, gif, webp)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      413  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /analyze [post]
func (h *Handler) AnalyzeChart(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "analyzer unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-chart")
	defer span.End()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fh, err := c.FormFile("chart")
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file selected"})
		return
	}
	if !allowedFile(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid file type. Please upload PNG, JPG, JPEG, GIF, or WebP",
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/png"
	}
	span.SetAttributes(attribute.String("filename", fh.Filename), attribute.Int("bytes", len(data)))

	result := h.analyzer.Analyze(ctx, data, mimeType)
	if result.Failed {
		zap.L().Warn("chart analysis failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("error", result.RawText),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureMessage("chart analysis failed: " + result.RawText)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":  false,
			"error":    result.RawText,
			"analysis": result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"analysis":      result,
		"image_preview": vision.DataURL(mimeType, data),
	})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}
