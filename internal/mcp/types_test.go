package mcp

import (
	"encoding/base64"
	"strings"
	"testing"

	"chart-prophet/internal/domain"
)

func TestDecodeImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}

	data, mime, err := decodeImage(chartAnalyzeInput{ImageBase64: base64.StdEncoding.EncodeToString(payload)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(payload) || mime != "image/png" {
		t.Fatalf("unexpected decode: %q %s", data, mime)
	}

	_, mime, err = decodeImage(chartAnalyzeInput{
		ImageBase64: "data:image/jpeg;base64," + base64.RawURLEncoding.EncodeToString(payload),
	})
	if err != nil || mime != "image/jpeg" {
		t.Fatalf("expected data URL mime, got %s err=%v", mime, err)
	}

	_, mime, err = decodeImage(chartAnalyzeInput{
		ImageBase64: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload),
		MimeType:    "image/gif",
	})
	if err != nil || mime != "image/gif" {
		t.Fatalf("explicit mime should win, got %s err=%v", mime, err)
	}
}

func TestDecodeImageRejects(t *testing.T) {
	cases := []chartAnalyzeInput{
		{},
		{ImageBase64: "data:image/png;base64"},
		{ImageBase64: "!!!"},
		{ImageBase64: base64.StdEncoding.EncodeToString([]byte("x")), MimeType: "application/pdf"},
		{ImageBase64: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", maxImageBytes+1)))},
	}
	for i, in := range cases {
		if _, _, err := decodeImage(in); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestNormalizeTradeFilter(t *testing.T) {
	filter, err := normalizeTradeFilter(tradesListInput{
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-31",
		IndicatorType: "all",
		Outcome:       "Loss",
		Limit:         999,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.StartDate == nil || filter.EndDate == nil {
		t.Fatalf("expected dates, got %+v", filter)
	}
	if filter.IndicatorType != "" || filter.Outcome != domain.OutcomeLoss {
		t.Fatalf("unexpected filter: %+v", filter)
	}
	if filter.Limit != maxTradeLimit {
		t.Fatalf("expected capped limit %d, got %d", maxTradeLimit, filter.Limit)
	}

	if filter, _ := normalizeTradeFilter(tradesListInput{}); filter.Limit != defaultTradeLimit {
		t.Fatalf("expected default limit, got %d", filter.Limit)
	}
}

func TestNormalizeRecommendation(t *testing.T) {
	cases := map[string]domain.Recommendation{
		"":            domain.RecommendationHold,
		"buy":         domain.RecommendationBuy,
		"Strong Sell": domain.RecommendationStrongSell,
		"STRONG_BUY":  domain.RecommendationStrongBuy,
	}
	for in, want := range cases {
		got, err := normalizeRecommendation(in)
		if err != nil || got != want {
			t.Fatalf("normalizeRecommendation(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := normalizeRecommendation("UNABLE_TO_ANALYZE"); err == nil {
		t.Fatal("failure sentinel must not be recordable")
	}
}
