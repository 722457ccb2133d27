package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chart-prophet/internal/chart"
	"chart-prophet/internal/domain"
	"chart-prophet/internal/export"
	"chart-prophet/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) requireTrades(c *gin.Context) bool {
	if h.tradeService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "trade journal unavailable"})
		return false
	}
	return true
}

func filterFromQuery(c *gin.Context) (domain.TradeFilter, error) {
	return service.ParseTradeFilter(
		c.Query("start_date"),
		c.Query("end_date"),
		c.Query("indicator_type"),
		c.Query("outcome"),
	)
}

func tradeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTradeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Trade not found"})
	case errors.Is(err, service.ErrInvalidTrade), errors.Is(err, service.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// ListTrades godoc
// @Summary      List journal trades
// @Description  Returns trades newest first, optionally filtered by date range, indicator and outcome
// @Tags         trades
// @Produce      json
// @Param        start_date      query  string  false  "ISO start date (inclusive)"
// @Param        end_date        query  string  false  "ISO end date (inclusive)"
// @Param        indicator_type  query  string  false  "Indicator type or all"
// @Param        outcome         query  string  false  "win, loss, pending or all"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/trades [get]
func (h *Handler) ListTrades(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-trades")
	defer span.End()

	filter, err := filterFromQuery(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	trades, err := h.tradeService.ListTrades(ctx, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "trades": trades})
}

// GetTrade godoc
// @Summary      Get one trade
// @Tags         trades
// @Produce      json
// @Param        id  path  int  true  "Trade ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/trades/{id} [get]
func (h *Handler) GetTrade(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trade")
	defer span.End()

	id, ok := tradeID(c)
	if !ok {
		return
	}
	t, err := h.tradeService.GetTrade(ctx, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "trade": t})
}

// CreateTrade godoc
// @Summary      Record a trade
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        trade  body  domain.Trade  true  "Trade"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/trades [post]
func (h *Handler) CreateTrade(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-trade")
	defer span.End()

	var t domain.Trade
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}
	t.ID = 0
	t.CreatedAt = time.Time{}

	saved, err := h.tradeService.RecordTrade(ctx, t)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	span.SetAttributes(attribute.Int64("trade_id", saved.ID))
	c.JSON(http.StatusOK, gin.H{"success": true, "trade_id": saved.ID})
}

// UpdateTrade godoc
// @Summary      Settle or annotate a trade
// @Description  Updates outcome, profit_loss, exit_price and notes when present in the body
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        id      path  int                 true  "Trade ID"
// @Param        update  body  domain.TradeUpdate  true  "Fields to change"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/trades/{id} [put]
func (h *Handler) UpdateTrade(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.update-trade")
	defer span.End()

	id, ok := tradeID(c)
	if !ok {
		return
	}
	var upd domain.TradeUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}
	if err := h.tradeService.UpdateTrade(ctx, id, upd); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteTrade godoc
// @Summary      Delete a trade
// @Tags         trades
// @Produce      json
// @Param        id  path  int  true  "Trade ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/trades/{id} [delete]
func (h *Handler) DeleteTrade(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-trade")
	defer span.End()

	id, ok := tradeID(c)
	if !ok {
		return
	}
	if err := h.tradeService.DeleteTrade(ctx, id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportTrades godoc
// @Summary      Export trades as XLSX
// @Tags         trades
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        start_date      query  string  false  "ISO start date (inclusive)"
// @Param        end_date        query  string  false  "ISO end date (inclusive)"
// @Param        indicator_type  query  string  false  "Indicator type or all"
// @Param        outcome         query  string  false  "win, loss, pending or all"
// @Success      200  {file}  binary
// @Router       /api/trades/export [get]
func (h *Handler) ExportTrades(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.export-trades")
	defer span.End()

	filter, err := filterFromQuery(c)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	trades, err := h.tradeService.ListTrades(ctx, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTradesXLSX(&buf, trades); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="trades.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetStats godoc
// @Summary      Journal statistics
// @Description  Win rate, profit/loss and breakdowns by date and indicator
// @Tags         trades
// @Produce      json
// @Param        start_date      query  string  false  "ISO start date (inclusive)"
// @Param        end_date        query  string  false  "ISO end date (inclusive)"
// @Param        indicator_type  query  string  false  "Indicator type or all"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	filter, err := service.ParseTradeFilter(c.Query("start_date"), c.Query("end_date"), c.Query("indicator_type"), "")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	stats, err := h.tradeService.Stats(ctx, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// GetEquityCurve godoc
// @Summary      Equity curve chart
// @Description  Cumulative profit/loss of settled trades as a PNG
// @Tags         trades
// @Produce      image/png
// @Param        start_date      query  string  false  "ISO start date (inclusive)"
// @Param        end_date        query  string  false  "ISO end date (inclusive)"
// @Param        indicator_type  query  string  false  "Indicator type or all"
// @Success      200  {file}  binary
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/stats/equity.png [get]
func (h *Handler) GetEquityCurve(c *gin.Context) {
	if !h.requireTrades(c) {
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-equity-curve")
	defer span.End()

	filter, err := service.ParseTradeFilter(c.Query("start_date"), c.Query("end_date"), c.Query("indicator_type"), "")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	trades, err := h.tradeService.ListTrades(ctx, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	png, err := h.renderer.RenderEquityCurve(trades)
	if errors.Is(err, chart.ErrNoSettledTrades) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
