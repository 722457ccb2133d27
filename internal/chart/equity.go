package chart

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"chart-prophet/internal/domain"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 540
	maxChartTrades     = 500
)

var ErrNoSettledTrades = errors.New("no settled trades with profit/loss to plot")

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colProfit     = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colLoss       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colEquity     = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colZero       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
)

// Renderer draws journal performance charts as PNG.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: defaultChartWidth, Height: defaultChartHeight}
}

// RenderEquityCurve plots cumulative profit/loss over settled trades in
// chronological order, with per-trade bars underneath. Pending trades and
// trades without a profit/loss value are skipped.
func (r *Renderer) RenderEquityCurve(trades []domain.Trade) ([]byte, error) {
	pl := settledProfitLoss(trades)
	if len(pl) == 0 {
		return nil, ErrNoSettledTrades
	}
	if len(pl) > maxChartTrades {
		pl = pl[len(pl)-maxChartTrades:]
	}

	width, height := r.Width, r.Height
	if width <= 0 || height <= 0 {
		width, height = defaultChartWidth, defaultChartHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillRect(img, img.Bounds(), colBackground)

	equityRect := image.Rect(60, 20, width-20, (height*68)/100)
	barRect := image.Rect(60, equityRect.Max.Y+16, width-20, height-30)
	drawGrid(img, equityRect, 8, 6)
	drawGrid(img, barRect, 8, 3)

	equity := cumulative(pl)
	minV, maxV := boundsWithZero(equity)
	drawZeroLine(img, equityRect, minV, maxV)
	drawSeries(img, equityRect, equity, minV, maxV, colEquity)

	minV, maxV = boundsWithZero(pl)
	drawZeroLine(img, barRect, minV, maxV)
	drawBars(img, barRect, pl, minV, maxV)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func settledProfitLoss(trades []domain.Trade) []float64 {
	settled := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.ProfitLoss == nil || math.IsNaN(*t.ProfitLoss) || math.IsInf(*t.ProfitLoss, 0) {
			continue
		}
		if t.Outcome != nil && *t.Outcome == domain.OutcomePending {
			continue
		}
		settled = append(settled, t)
	}
	sort.SliceStable(settled, func(i, j int) bool {
		if settled[i].CreatedAt.Equal(settled[j].CreatedAt) {
			return settled[i].ID < settled[j].ID
		}
		return settled[i].CreatedAt.Before(settled[j].CreatedAt)
	})

	out := make([]float64, len(settled))
	for i, t := range settled {
		out[i] = *t.ProfitLoss
	}
	return out
}

func cumulative(values []float64) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

// boundsWithZero keeps the zero line inside the plotted range.
func boundsWithZero(values []float64) (float64, float64) {
	minV, maxV := 0.0, 0.0
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if minV == maxV {
		maxV = minV + 1
	}
	return minV, maxV
}

func drawZeroLine(img *image.RGBA, rect image.Rectangle, minV, maxV float64) {
	y := mapValueToY(0, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, colZero)
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	if len(series) == 1 {
		y := mapValueToY(series[0], minV, maxV, rect)
		fillRect(img, image.Rect(rect.Min.X-2, y-2, rect.Min.X+3, y+3), col)
		return
	}
	for i := 1; i < len(series); i++ {
		x0 := mapIndexToX(i-1, len(series), rect)
		x1 := mapIndexToX(i, len(series), rect)
		drawLine(img, x0, mapValueToY(series[i-1], minV, maxV, rect), x1, mapValueToY(series[i], minV, maxV, rect), col)
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64) {
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		col := colProfit
		if v < 0 {
			col = colLoss
		}
		fillRect(img, image.Rect(x-barW/2, min(y, zeroY), x+barW/2+1, max(y, zeroY)+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := math.Max(0, math.Min(1, (value-minV)/(maxV-minV)))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawLine is Bresenham, clipped to the image.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	dy := -abs(y1 - y0)
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
