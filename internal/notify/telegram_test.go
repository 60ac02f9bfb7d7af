package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/service"
	"routine-planner/internal/testutil"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	err   error
	block chan struct{}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) Sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func TestCloseText(t *testing.T) {
	summary := service.Summary{Done: 2, Canceled: 1, Failed: 1, TotalPenalty: decimal.NewFromInt(10)}

	day := service.CloseResult{Kind: service.PeriodDay, ID: 12, Summary: summary, Currency: "EUR"}
	assert.Equal(t, "Day closed (#12).\nDone: 2\nCanceled: 1\nFailed: 1\nTo transfer: 10.00 EUR", CloseText(day))

	week := service.CloseResult{Kind: service.PeriodWeek, ID: 3, Summary: summary, Currency: "USD"}
	assert.Contains(t, CloseText(week), "Week closed (#3).")

	week.Auto = true
	assert.Contains(t, CloseText(week), "Week (auto) closed (#3).")
}

func TestTelegram_DeliversQueuedMessages(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, Options{RatePerSec: 100}, zerolog.Nop())

	n.PeriodClosed(42, service.CloseResult{Kind: service.PeriodDay, ID: 1, Currency: "EUR"})
	n.SendText(43, "hello")
	n.Close(testutil.Ctx())

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Day closed (#1).")
	assert.Equal(t, int64(43), sent[1].ChatID)

	// Closed notifiers drop silently.
	n.SendText(44, "late")
	assert.Len(t, sender.Sent(), 2)
}

func TestTelegram_SendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	n := New(sender, Options{}, zerolog.Nop())

	assert.NotPanics(t, func() {
		n.SendText(1, "x")
		n.Close(testutil.Ctx())
	})
	assert.Len(t, sender.Sent(), 1)
}

func TestTelegram_FullQueueNeverBlocks(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	n := New(sender, Options{QueueSize: 1, SendTimeout: 50 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 20; i++ {
		n.SendText(int64(i), "spam")
	}
	assert.Less(t, time.Since(start), time.Second)

	close(sender.block)
	n.Close(testutil.Ctx())
}

func TestTelegram_Disabled(t *testing.T) {
	n := New(nil, Options{}, zerolog.Nop())
	assert.False(t, n.Enabled())
	assert.NotPanics(t, func() {
		n.SendText(1, "x")
		n.PeriodClosed(1, service.CloseResult{})
		n.Close(testutil.Ctx())
	})
}
