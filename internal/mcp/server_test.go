package mcp

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChartAnalyzeQuota(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, analyzer, journal := testServer()
	srv := NewServer(nil, analyzer, journal, ServerConfig{RequestTimeout: time.Second, AnalysesPerMin: 1})
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	params := &sdkmcp.CallToolParams{
		Name:      chartAnalyzeTool,
		Arguments: map[string]any{"image_base64": base64.StdEncoding.EncodeToString([]byte("png"))},
	}
	res, err := session.CallTool(ctx, params)
	if err != nil || res.IsError {
		t.Fatalf("expected first analysis to pass, err=%v result=%+v", err, res)
	}

	res, err = session.CallTool(ctx, params)
	if err != nil {
		t.Fatalf("expected a tool error result, got protocol error %v", err)
	}
	if !res.IsError || len(res.Content) == 0 {
		t.Fatalf("expected quota error, got %+v", res)
	}
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok || !strings.Contains(text.Text, "quota exceeded") {
		t.Fatalf("unexpected quota message: %+v", res.Content[0])
	}

	// Journal tools are not counted against the analysis quota.
	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "trades_stats", Arguments: map[string]any{}})
	if err != nil || res.IsError {
		t.Fatalf("expected journal tool to pass, err=%v result=%+v", err, res)
	}
}

func TestServerConfigDefaults(t *testing.T) {
	cfg := ServerConfig{}.withDefaults()
	if cfg.RequestTimeout != defaultRequestTimeout || cfg.AnalysisTimeout != defaultAnalysisTimeout || cfg.AnalysesPerMin != defaultAnalysesPerMin {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cfg = ServerConfig{RequestTimeout: time.Second, AnalysisTimeout: time.Minute, AnalysesPerMin: 3}.withDefaults()
	if cfg.RequestTimeout != time.Second || cfg.AnalysisTimeout != time.Minute || cfg.AnalysesPerMin != 3 {
		t.Fatalf("expected explicit values kept: %+v", cfg)
	}
}

func TestSpanName(t *testing.T) {
	call := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{Name: " chart_analyze "}}
	if got := spanName("tools/call", call); got != "mcp.tool.chart_analyze" {
		t.Fatalf("unexpected tool span name %q", got)
	}
	if got := spanName("tools/call", &sdkmcp.CallToolRequest{}); got != "mcp.tool.call" {
		t.Fatalf("unexpected fallback span name %q", got)
	}
	if got := spanName("resources/read", &sdkmcp.ReadResourceRequest{}); got != "mcp.resources.read" {
		t.Fatalf("unexpected resource span name %q", got)
	}
}
