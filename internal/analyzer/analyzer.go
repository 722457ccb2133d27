package analyzer

import (
	"context"
	"errors"

	"chart-prophet/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultMimeType = "image/png"

var ErrEmptyImage = errors.New("image data is empty")

// VisionModel generates text for a prompt plus one image. Errors should
// expose HTTPStatus() int when the provider returned a status code.
type VisionModel interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

type Analyzer struct {
	tracer trace.Tracer
	model  VisionModel
	policy RetryPolicy
	logger *zap.Logger
}

func New(tracer trace.Tracer, model VisionModel, policy RetryPolicy) *Analyzer {
	return &Analyzer{
		tracer: tracer,
		model:  model,
		policy: policy,
		logger: zap.L().Named("analyzer"),
	}
}

// Analyze never returns an error. Failures come back as a result with
// Failed set and RawText holding the error message.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) domain.AnalysisResult {
	ctx, span := a.tracer.Start(ctx, "analyzer.analyze")
	defer span.End()

	if mimeType == "" {
		mimeType = defaultMimeType
	}
	span.SetAttributes(
		attribute.String("mime_type", mimeType),
		attribute.Int("image_bytes", len(image)),
	)

	if len(image) == 0 {
		return FailedResult(ErrEmptyImage)
	}

	raw, err := a.invoke(ctx, image, mimeType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("chart analysis failed", zap.Error(err))
		return FailedResult(err)
	}

	result := Parse(raw)
	span.SetAttributes(attribute.String("recommendation", string(result.Recommendation)))
	return result
}

// FailedResult builds the sentinel returned when no model text is available.
func FailedResult(err error) domain.AnalysisResult {
	unavailable := func() []string { return []string{"Analysis unavailable"} }
	return domain.AnalysisResult{
		Recommendation:   domain.RecommendationUnavailable,
		Confidence:       domain.NotAvailable,
		TrendDirection:   domain.TrendUnknown,
		SupportLevels:    unavailable(),
		ResistanceLevels: unavailable(),
		RSIAnalysis:      ExtractIndicator("", "rsi"),
		MACDAnalysis:     ExtractIndicator("", "macd"),
		FibonacciLevels:  ExtractFibonacci(""),
		KeyObservations:  unavailable(),
		RiskFactors:      unavailable(),
		EntryPoints:      unavailable(),
		ExitPoints:       unavailable(),
		Summary:          "Analysis unavailable",
		RawText:          err.Error(),
		Failed:           true,
	}
}
