package mcp

import (
	"context"
	"fmt"

	"chart-prophet/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const chartAnalyzeTool = "chart_analyze"

func registerTools(server *mcp.Server, analyzer ChartAnalyzer, journal TradeJournal) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        chartAnalyzeTool,
		Description: "Analyze a trading chart image and return recommendation, levels, indicators and risks",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in chartAnalyzeInput) (*mcp.CallToolResult, chartAnalyzeOutput, error) {
		if analyzer == nil {
			return nil, chartAnalyzeOutput{}, fmt.Errorf("chart analyzer unavailable")
		}
		image, mimeType, err := decodeImage(in)
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}
		result := analyzer.Analyze(ctx, image, mimeType)
		if result.Failed {
			return nil, chartAnalyzeOutput{}, fmt.Errorf("analysis failed: %s", result.RawText)
		}
		return nil, chartAnalyzeOutput{Analysis: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trades_list",
		Description: "List journal trades newest first with optional date, indicator and outcome filters",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tradesListInput) (*mcp.CallToolResult, tradesListOutput, error) {
		if journal == nil {
			return nil, tradesListOutput{}, fmt.Errorf("trade journal unavailable")
		}
		filter, err := normalizeTradeFilter(in)
		if err != nil {
			return nil, tradesListOutput{}, err
		}
		trades, err := journal.ListTrades(ctx, filter)
		if err != nil {
			return nil, tradesListOutput{}, err
		}
		return nil, tradesListOutput{Trades: trades}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trades_record",
		Description: "Record a pending trade in the journal",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tradesRecordInput) (*mcp.CallToolResult, tradesRecordOutput, error) {
		if journal == nil {
			return nil, tradesRecordOutput{}, fmt.Errorf("trade journal unavailable")
		}
		trade, err := tradeFromInput(in)
		if err != nil {
			return nil, tradesRecordOutput{}, err
		}
		saved, err := journal.RecordTrade(ctx, trade)
		if err != nil {
			return nil, tradesRecordOutput{}, err
		}
		return nil, tradesRecordOutput{TradeID: saved.ID}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trades_stats",
		Description: "Journal statistics: win rate, profit/loss and breakdowns by date and indicator",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in tradesStatsInput) (*mcp.CallToolResult, tradesStatsOutput, error) {
		if journal == nil {
			return nil, tradesStatsOutput{}, fmt.Errorf("trade journal unavailable")
		}
		filter, err := service.ParseTradeFilter(in.StartDate, in.EndDate, in.IndicatorType, "")
		if err != nil {
			return nil, tradesStatsOutput{}, err
		}
		stats, err := journal.Stats(ctx, filter)
		if err != nil {
			return nil, tradesStatsOutput{}, err
		}
		return nil, tradesStatsOutput{Stats: stats}, nil
	})
}
