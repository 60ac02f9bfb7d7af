package notify

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"routine-planner/internal/service"
)

var (
	ErrDisabled  = errors.New("notifier disabled")
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Options struct {
	QueueSize  int
	RatePerSec int
	// SendTimeout bounds one delivery, including the wait for the limiter.
	SendTimeout time.Duration
}

type job struct {
	chatID int64
	text   string
}

// Telegram delivers chat messages from a bounded queue on one worker
// goroutine. Enqueueing never blocks: a full queue drops the message. A nil
// sender disables delivery entirely.
type Telegram struct {
	sender  Sender
	log     zerolog.Logger
	limiter *rate.Limiter
	timeout time.Duration

	mu        sync.Mutex
	accepting bool
	queue     chan job
	done      chan struct{}
}

func New(sender Sender, opts Options, log zerolog.Logger) *Telegram {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 20
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 6 * time.Second
	}

	t := &Telegram{
		sender:  sender,
		log:     log.With().Str("component", "notifier").Logger(),
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec),
		timeout: opts.SendTimeout,
	}
	if sender == nil {
		return t
	}

	t.queue = make(chan job, opts.QueueSize)
	t.done = make(chan struct{})
	t.accepting = true
	go t.run()
	return t
}

func (t *Telegram) Enabled() bool {
	return t.sender != nil
}

// PeriodClosed queues the close summary for chatID.
func (t *Telegram) PeriodClosed(chatID int64, result service.CloseResult) {
	t.SendText(chatID, CloseText(result))
}

// SendText queues a plain message. Failures are logged, never returned.
func (t *Telegram) SendText(chatID int64, text string) {
	if err := t.enqueue(job{chatID: chatID, text: text}); err != nil && !errors.Is(err, ErrDisabled) {
		t.log.Warn().Err(err).Int64("chat_id", chatID).Msg("notification dropped")
	}
}

func (t *Telegram) enqueue(j job) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sender == nil {
		return ErrDisabled
	}
	if !t.accepting {
		return ErrStopped
	}
	select {
	case t.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and drains the queue until ctx is done.
func (t *Telegram) Close(ctx context.Context) {
	t.mu.Lock()
	if !t.accepting {
		t.mu.Unlock()
		return
	}
	t.accepting = false
	close(t.queue)
	t.mu.Unlock()

	select {
	case <-t.done:
	case <-ctx.Done():
		t.log.Warn().Int("pending", len(t.queue)).Msg("notifier closed before queue drained")
	}
}

func (t *Telegram) run() {
	defer close(t.done)
	for j := range t.queue {
		t.deliver(j)
	}
}

func (t *Telegram) deliver(j job) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("panic in notifier worker")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.limiter.Wait(ctx); err != nil {
		t.log.Warn().Err(err).Int64("chat_id", j.chatID).Msg("notification rate limited")
		return
	}

	msg := tgbotapi.NewMessage(j.chatID, j.text)
	msg.DisableWebPagePreview = true

	errCh := make(chan error, 1)
	go func() {
		_, err := t.sender.Send(msg)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.log.Warn().Err(err).Int64("chat_id", j.chatID).Msg("telegram notification failed")
			return
		}
		t.log.Debug().Int64("chat_id", j.chatID).Msg("notification sent")
	case <-ctx.Done():
		t.log.Warn().Err(ctx.Err()).Int64("chat_id", j.chatID).Msg("telegram notification timed out")
	}
}

// CloseText renders a close summary the way it appears in chat.
func CloseText(r service.CloseResult) string {
	title := "Day"
	if r.Kind == service.PeriodWeek {
		title = "Week"
		if r.Auto {
			title = "Week (auto)"
		}
	}
	return fmt.Sprintf("%s closed (#%d).\nDone: %d\nCanceled: %d\nFailed: %d\nTo transfer: %s %s",
		title, r.ID,
		r.Summary.Done, r.Summary.Canceled, r.Summary.Failed,
		r.AmountToTransfer().StringFixed(2), r.Currency)
}
