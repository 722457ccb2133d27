package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"chart-prophet/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// SettlementNotifier tells subscribed chats when a journal trade is closed
// out. A chat may follow every symbol or a single one.
type SettlementNotifier struct {
	sender messageSender

	mu sync.RWMutex
	// chat ID -> upper-cased symbol, "" follows all symbols
	symbols map[int64]string
}

func NewSettlementNotifier(sender messageSender) *SettlementNotifier {
	return &SettlementNotifier{
		sender:  sender,
		symbols: make(map[int64]string),
	}
}

// Subscribe reports whether the chat's subscription changed.
func (n *SettlementNotifier) Subscribe(chatID int64, symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	n.mu.Lock()
	defer n.mu.Unlock()

	if cur, ok := n.symbols[chatID]; ok && cur == symbol {
		return false
	}
	n.symbols[chatID] = symbol
	return true
}

func (n *SettlementNotifier) Unsubscribe(chatID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.symbols[chatID]; !ok {
		return false
	}
	delete(n.symbols, chatID)
	return true
}

// Subscription returns the followed symbol ("" for all) and whether the chat
// is subscribed at all.
func (n *SettlementNotifier) Subscription(chatID int64) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	symbol, ok := n.symbols[chatID]
	return symbol, ok
}

func (n *SettlementNotifier) NotifyTradeSettled(ctx context.Context, t domain.Trade) error {
	if n == nil || n.sender == nil {
		return nil
	}

	chatIDs := n.recipients(t.Symbol)
	if len(chatIDs) == 0 {
		return nil
	}

	msg := formatSettlement(t)
	var errs []error
	for _, chatID := range chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := n.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// recipients lists, in chat ID order, the chats following symbol.
func (n *SettlementNotifier) recipients(symbol string) []int64 {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]int64, 0, len(n.symbols))
	for chatID, want := range n.symbols {
		if want == "" || want == symbol {
			out = append(out, chatID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// parseAlertArgs reads "/alerts [on [SYMBOL]|off|status]".
func parseAlertArgs(args []string) (mode, symbol string, err error) {
	if len(args) == 0 {
		return "status", "", nil
	}

	mode = strings.ToLower(strings.TrimSpace(args[0]))
	switch mode {
	case "on":
		if len(args) > 2 {
			return "", "", errors.New("too many arguments")
		}
		if len(args) == 2 {
			symbol = strings.ToUpper(strings.TrimSpace(args[1]))
		}
		return mode, symbol, nil
	case "off", "status":
		if len(args) > 1 {
			return "", "", errors.New("too many arguments")
		}
		return mode, "", nil
	default:
		return "", "", fmt.Errorf("invalid mode %q", args[0])
	}
}

func alertReply(n *SettlementNotifier, chatID int64, args []string) string {
	mode, symbol, err := parseAlertArgs(args)
	if err != nil {
		return "Usage: /alerts on [SYMBOL] | /alerts off | /alerts status"
	}

	switch mode {
	case "on":
		scope := "all symbols"
		if symbol != "" {
			scope = symbol
		}
		if n.Subscribe(chatID, symbol) {
			return fmt.Sprintf("Settlement notices enabled for %s.", scope)
		}
		return fmt.Sprintf("Settlement notices are already enabled for %s.", scope)
	case "off":
		if n.Unsubscribe(chatID) {
			return "Settlement notices disabled for this chat."
		}
		return "Settlement notices are already disabled for this chat."
	default:
		symbol, ok := n.Subscription(chatID)
		switch {
		case !ok:
			return "Notices status: OFF"
		case symbol == "":
			return "Notices status: ON (all symbols)"
		default:
			return fmt.Sprintf("Notices status: ON (%s)", symbol)
		}
	}
}

func formatSettlement(t domain.Trade) string {
	outcome := "PENDING"
	if t.Outcome != nil {
		outcome = strings.ToUpper(*t.Outcome)
	}
	symbol := t.Symbol
	if symbol == "" {
		symbol = "trade"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trade #%d %s (%s) settled: %s", t.ID, symbol, t.Recommendation, outcome)
	if t.ProfitLoss != nil {
		fmt.Fprintf(&b, " %+.2f", *t.ProfitLoss)
	}
	if t.EntryPrice != nil && t.ExitPrice != nil {
		fmt.Fprintf(&b, "\nEntry %.2f -> Exit %.2f", *t.EntryPrice, *t.ExitPrice)
	}
	if t.IndicatorType != "" {
		fmt.Fprintf(&b, "\nIndicator: %s", t.IndicatorType)
	}
	return b.String()
}
