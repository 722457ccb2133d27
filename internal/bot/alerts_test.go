package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"chart-prophet/internal/domain"

	tele "gopkg.in/telebot.v3"
)

func TestParseAlertArgs(t *testing.T) {
	cases := []struct {
		args      []string
		mode, sym string
		wantErr   bool
	}{
		{nil, "status", "", false},
		{[]string{"on"}, "on", "", false},
		{[]string{"ON", "btcusd"}, "on", "BTCUSD", false},
		{[]string{"OFF"}, "off", "", false},
		{[]string{"off", "BTC"}, "", "", true},
		{[]string{"on", "BTC", "ETH"}, "", "", true},
		{[]string{"nope"}, "", "", true},
	}
	for _, tc := range cases {
		mode, sym, err := parseAlertArgs(tc.args)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%v: unexpected err %v", tc.args, err)
		}
		if mode != tc.mode || sym != tc.sym {
			t.Fatalf("%v: expected %q %q, got %q %q", tc.args, tc.mode, tc.sym, mode, sym)
		}
	}
}

func TestSettlementNotifierBroadcasts(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewSettlementNotifier(sender)

	if !notifier.Subscribe(10, "") || !notifier.Subscribe(20, "") {
		t.Fatal("expected initial subscribes to return true")
	}
	if notifier.Subscribe(10, "") {
		t.Fatal("expected duplicate subscribe to return false")
	}

	win := domain.OutcomeWin
	pnl := 42.5
	entry, exit := 100.0, 142.5
	trade := domain.Trade{
		ID: 7, Symbol: "BTCUSD", Recommendation: domain.RecommendationBuy,
		Outcome: &win, ProfitLoss: &pnl, EntryPrice: &entry, ExitPrice: &exit, IndicatorType: "RSI",
	}
	if err := notifier.NotifyTradeSettled(context.Background(), trade); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.messages[10]) != 1 || len(sender.messages[20]) != 1 {
		t.Fatalf("expected one message per subscriber, got %+v", sender.messages)
	}
	body := sender.messages[10][0]
	for _, want := range []string{"Trade #7 BTCUSD (BUY) settled: WIN +42.50", "Entry 100.00 -> Exit 142.50", "Indicator: RSI"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in notice, got %s", want, body)
		}
	}
}

func TestSettlementNotifierFiltersBySymbol(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewSettlementNotifier(sender)
	notifier.Subscribe(1, "ethusd")
	notifier.Subscribe(2, "")

	loss := domain.OutcomeLoss
	if err := notifier.NotifyTradeSettled(context.Background(), domain.Trade{ID: 3, Symbol: "BTCUSD", Outcome: &loss}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.messages[1]) != 0 || len(sender.messages[2]) != 1 {
		t.Fatalf("expected only the all-symbols chat notified, got %+v", sender.messages)
	}

	if err := notifier.NotifyTradeSettled(context.Background(), domain.Trade{ID: 4, Symbol: "EthUsd", Outcome: &loss}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.messages[1]) != 1 {
		t.Fatalf("expected ETHUSD follower notified, got %+v", sender.messages)
	}
}

func TestSettlementNotifierCollectsSendErrors(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{5: true}}
	notifier := NewSettlementNotifier(sender)
	notifier.Subscribe(5, "")
	notifier.Subscribe(6, "")

	err := notifier.NotifyTradeSettled(context.Background(), domain.Trade{ID: 1})
	if err == nil || !strings.Contains(err.Error(), "chat 5") {
		t.Fatalf("expected chat 5 failure, got %v", err)
	}
	if len(sender.messages[6]) != 1 {
		t.Fatal("expected remaining chats to still be notified")
	}
}

func TestSettlementNotifierStopsOnCanceledContext(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewSettlementNotifier(sender)
	notifier.Subscribe(1, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notifier.NotifyTradeSettled(ctx, domain.Trade{ID: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sender.messages) != 0 {
		t.Fatalf("expected nothing sent, got %+v", sender.messages)
	}
}

func TestAlertReply(t *testing.T) {
	notifier := NewSettlementNotifier(&fakeSender{})

	steps := []struct {
		args []string
		want string
	}{
		{nil, "Notices status: OFF"},
		{[]string{"on"}, "Settlement notices enabled for all symbols."},
		{[]string{"on"}, "Settlement notices are already enabled for all symbols."},
		{[]string{"status"}, "Notices status: ON (all symbols)"},
		{[]string{"on", "solusd"}, "Settlement notices enabled for SOLUSD."},
		{nil, "Notices status: ON (SOLUSD)"},
		{[]string{"off"}, "Settlement notices disabled for this chat."},
		{[]string{"off"}, "Settlement notices are already disabled for this chat."},
		{[]string{"maybe"}, "Usage: /alerts on [SYMBOL] | /alerts off | /alerts status"},
	}
	for i, s := range steps {
		if got := alertReply(notifier, 42, s.args); got != s.want {
			t.Fatalf("step %d: expected %q, got %q", i, s.want, got)
		}
	}
}

func TestNilSettlementNotifierIsSafe(t *testing.T) {
	var notifier *SettlementNotifier
	if err := notifier.NotifyTradeSettled(context.Background(), domain.Trade{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeSender struct {
	messages map[int64][]string
	fail     map[int64]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}

	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.fail[chat.ID] {
		return nil, errors.New("blocked by user")
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	return &tele.Message{}, nil
}
