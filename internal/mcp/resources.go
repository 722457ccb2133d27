package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"chart-prophet/internal/chart"
	"chart-prophet/internal/domain"
	"chart-prophet/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const equityResourceLimit = 500

var errJournalUnavailable = errors.New("trade journal unavailable")

// journalResource reads a fixed journal:// URI.
type journalResource struct {
	uri         string
	name        string
	description string
	mimeType    string
	read        func(ctx context.Context, journal TradeJournal, uri string) (*mcp.ResourceContents, error)
}

var journalResources = []journalResource{
	{
		uri:         "journal://recommendations",
		name:        "journal-recommendations",
		description: "How trades performed grouped by the recommendation they followed",
		mimeType:    "application/json",
		read: func(ctx context.Context, journal TradeJournal, uri string) (*mcp.ResourceContents, error) {
			trades, err := journal.ListTrades(ctx, domain.TradeFilter{})
			if err != nil {
				return nil, err
			}
			return jsonContents(uri, recommendationsOutput{Recommendations: service.RecommendationBreakdown(trades)})
		},
	},
	{
		uri:         "journal://stats",
		name:        "journal-stats",
		description: "All-time journal statistics",
		mimeType:    "application/json",
		read: func(ctx context.Context, journal TradeJournal, uri string) (*mcp.ResourceContents, error) {
			stats, err := journal.Stats(ctx, domain.TradeFilter{})
			if err != nil {
				return nil, err
			}
			return jsonContents(uri, tradesStatsOutput{Stats: stats})
		},
	},
	{
		uri:         "journal://equity.png",
		name:        "journal-equity",
		description: "Equity curve of the latest settled trades as a PNG",
		mimeType:    "image/png",
		read: func(ctx context.Context, journal TradeJournal, uri string) (*mcp.ResourceContents, error) {
			trades, err := journal.ListTrades(ctx, domain.TradeFilter{Limit: equityResourceLimit})
			if err != nil {
				return nil, err
			}
			img, err := chart.NewRenderer().RenderEquityCurve(trades)
			if err != nil {
				return nil, err
			}
			return &mcp.ResourceContents{URI: uri, MIMEType: "image/png", Blob: img}, nil
		},
	},
}

func registerResources(server *mcp.Server, journal TradeJournal) {
	for _, res := range journalResources {
		read := res.read
		server.AddResource(&mcp.Resource{
			URI:         res.uri,
			Name:        res.name,
			Description: res.description,
			MIMEType:    res.mimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			if journal == nil {
				return nil, errJournalUnavailable
			}
			contents, err := read(ctx, journal, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{contents}}, nil
		})
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "journal://trades{?outcome,indicator,limit}",
		Name:        "journal-trades",
		Description: "Recent trades with optional outcome/indicator/limit query params",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if journal == nil {
			return nil, errJournalUnavailable
		}
		filter, err := tradeFilterFromURI(req.Params.URI)
		if err != nil {
			return nil, err
		}
		trades, err := journal.ListTrades(ctx, filter)
		if err != nil {
			return nil, err
		}
		contents, err := jsonContents(req.Params.URI, tradesListOutput{Trades: trades})
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{contents}}, nil
	})
}

// tradeFilterFromURI maps journal://trades query params onto a filter.
func tradeFilterFromURI(raw string) (domain.TradeFilter, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "journal" || u.Host != "trades" {
		return domain.TradeFilter{}, mcp.ResourceNotFoundError(raw)
	}

	q := u.Query()
	in := tradesListInput{Outcome: q.Get("outcome"), IndicatorType: q.Get("indicator")}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.TradeFilter{}, fmt.Errorf("invalid limit: %s", v)
		}
		in.Limit = n
	}
	return normalizeTradeFilter(in)
}

func jsonContents(uri string, payload any) (*mcp.ResourceContents, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContents{URI: uri, MIMEType: "application/json", Text: string(body)}, nil
}
