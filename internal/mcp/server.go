package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout  = 5 * time.Second
	defaultAnalysisTimeout = 2 * time.Minute
	defaultAnalysesPerMin  = 10
)

type ServerConfig struct {
	RequestTimeout time.Duration
	// AnalysisTimeout bounds chart_analyze calls, which wait on the vision
	// model and its rate-limit backoff.
	AnalysisTimeout time.Duration
	// AnalysesPerMin caps chart_analyze calls across all clients so one agent
	// cannot drain the vision model quota.
	AnalysesPerMin int
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = defaultAnalysisTimeout
	}
	if c.AnalysesPerMin <= 0 {
		c.AnalysesPerMin = defaultAnalysesPerMin
	}
	return c
}

func NewServer(tracer trace.Tracer, analyzer ChartAnalyzer, journal TradeJournal, cfg ServerConfig) *sdkmcp.Server {
	cfg = cfg.withDefaults()

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "chart-prophet-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Use chart_analyze on chart screenshots, then record and review trades in the journal.",
		Logger:       slog.Default(),
	})

	// Added last runs first: tracing wraps the quota check and the timeout.
	srv.AddReceivingMiddleware(timeoutMiddleware(cfg.RequestTimeout, cfg.AnalysisTimeout))
	srv.AddReceivingMiddleware(analysisQuotaMiddleware(rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.AnalysesPerMin)), cfg.AnalysesPerMin)))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, analyzer, journal)
	registerResources(srv, journal)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

// toolName is empty for anything but a tools/call request.
func toolName(req sdkmcp.Request) string {
	callReq, ok := req.(*sdkmcp.CallToolRequest)
	if !ok || callReq.Params == nil {
		return ""
	}
	return strings.TrimSpace(callReq.Params.Name)
}

func timeoutMiddleware(timeout, analysisTimeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			d := timeout
			if toolName(req) == chartAnalyzeTool {
				d = analysisTimeout
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, method, req)
		}
	}
}

// analysisQuotaMiddleware answers over-quota chart_analyze calls with a tool
// error the agent can read instead of a protocol failure.
func analysisQuotaMiddleware(limiter *rate.Limiter) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if toolName(req) != chartAnalyzeTool || limiter.Allow() {
				return next(ctx, method, req)
			}
			return &sdkmcp.CallToolResult{
				IsError: true,
				Content: []sdkmcp.Content{&sdkmcp.TextContent{
					Text: "chart analysis quota exceeded, retry in a minute",
				}},
			}, nil
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, spanName(method, req))
			defer span.End()
			span.SetAttributes(attribute.String("mcp.method", method))

			if name := toolName(req); name != "" {
				span.SetAttributes(attribute.String("mcp.tool", name))
			}
			if readReq, ok := req.(*sdkmcp.ReadResourceRequest); ok && readReq.Params != nil {
				span.SetAttributes(attribute.String("mcp.resource.uri", readReq.Params.URI))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
			}
			if callResult, ok := result.(*sdkmcp.CallToolResult); ok && callResult.IsError {
				span.SetAttributes(attribute.Bool("mcp.tool.error", true))
			}
			return result, err
		}
	}
}

func spanName(method string, req sdkmcp.Request) string {
	if name := toolName(req); name != "" {
		return "mcp.tool." + name
	}
	if method == "tools/call" {
		return "mcp.tool.call"
	}
	return "mcp." + strings.ReplaceAll(method, "/", ".")
}
