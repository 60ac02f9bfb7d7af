package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"routine-planner/internal/auth"
	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

const (
	cbDonePrefix    = "done:"
	cbCancelPrefix  = "cancel:"
	cbDayAddPrefix  = "addday:"
	cbWeekAddPrefix = "addweek:"
)

const (
	menuLabelToday   = "📅 Today"
	menuLabelWeek    = "🗓 Week"
	menuLabelBacklog = "📥 Backlog"
	menuLabelStats   = "📊 Stats"
	menuLabelApp     = "Open Routine App"
)

// Client is the subset of *tgbotapi.BotAPI the bot uses.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Provisioner turns a Telegram sender into a stored user.
type Provisioner interface {
	Provision(ctx context.Context, id auth.Identity) (*model.User, error)
}

type Services struct {
	Lifecycle *service.Lifecycle
	Instances *service.InstanceService
	Tasks     *service.TaskService
	Stats     *service.StatsService
	Users     Provisioner
}

// Bot aggregates the Telegram API with services. Close summaries are not
// sent from here: the lifecycle hands them to the notifier, which writes to
// the same chat.
type Bot struct {
	api        Client
	svc        Services
	miniAppURL string
	log        zerolog.Logger
}

func New(api Client, svc Services, miniAppURL string, log zerolog.Logger) *Bot {
	return &Bot{
		api:        api,
		svc:        svc,
		miniAppURL: strings.TrimSpace(miniAppURL),
		log:        log.With().Str("component", "bot").Logger(),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Msg("handle callback")
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Msg("handle message")
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if msg.IsCommand() {
		return b.handleCommand(ctx, msg)
	}
	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}
	return b.sendText(msg.Chat.ID, "Unknown input. Send /help to see the commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	b.log.Debug().Int64("telegram_id", msg.From.ID).Str("command", msg.Command()).Msg("command")
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "startday":
		return b.handleStartDay(ctx, msg)
	case "closeday":
		return b.handleCloseDay(ctx, msg)
	case "startweek":
		return b.handleStartWeek(ctx, msg)
	case "closeweek":
		return b.handleCloseWeek(ctx, msg)
	case "today":
		return b.handleList(ctx, msg.Chat.ID, msg.From, service.ScopeToday)
	case "week":
		return b.handleList(ctx, msg.Chat.ID, msg.From, service.ScopeWeek)
	case "backlog":
		return b.handleBacklog(ctx, msg.Chat.ID, msg.From)
	case "stats":
		return b.handleStats(ctx, msg.Chat.ID, msg.From)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Send /help to see the commands.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return true, b.handleList(ctx, msg.Chat.ID, msg.From, service.ScopeToday)
	case menuLabelWeek:
		return true, b.handleList(ctx, msg.Chat.ID, msg.From, service.ScopeWeek)
	case menuLabelBacklog:
		return true, b.handleBacklog(ctx, msg.Chat.ID, msg.From)
	case menuLabelStats:
		return true, b.handleStats(ctx, msg.Chat.ID, msg.From)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "Open Mini App to manage days, weeks and tasks.\n\n"+helpText)
}

func (b *Bot) handleStartDay(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	day, err := b.svc.Lifecycle.OpenDay(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("Day #%d started.", day.ID)); err != nil {
		return err
	}
	return b.handleList(ctx, msg.Chat.ID, msg.From, service.ScopeToday)
}

func (b *Bot) handleCloseDay(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if _, err := b.svc.Lifecycle.CloseDay(ctx, user); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return nil
}

func (b *Bot) handleStartWeek(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	week, _, err := b.svc.Lifecycle.OpenWeek(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("Week #%d started.", week.ID)); err != nil {
		return err
	}
	return b.handleList(ctx, msg.Chat.ID, msg.From, service.ScopeWeek)
}

func (b *Bot) handleCloseWeek(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if _, err := b.svc.Lifecycle.CloseWeek(ctx, user); err != nil {
		return b.replyError(msg.Chat.ID, err)
	}
	return nil
}

func (b *Bot) handleList(ctx context.Context, chatID int64, from *tgbotapi.User, scope string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	items, err := b.svc.Instances.List(ctx, user.ID, scope)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(items) == 0 {
		return b.sendText(chatID, emptyListText(scope))
	}

	text, buttons := renderInstances(scope, items)
	if len(buttons) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

func (b *Bot) handleBacklog(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	tasks, err := b.svc.Tasks.List(ctx, user.ID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	text, buttons := renderBacklog(tasks)
	if len(buttons) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(buttons...))
}

func (b *Bot) handleStats(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	periods := []service.StatsPeriod{service.StatsDays, service.StatsWeeks, service.StatsMonths}
	stats := make([]service.PenaltyStats, 0, len(periods))
	for _, p := range periods {
		st, err := b.svc.Stats.PenaltySummary(ctx, user.ID, p)
		if err != nil {
			return b.replyError(chatID, err)
		}
		stats = append(stats, st)
	}
	return b.sendText(chatID, renderStats(stats))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	action, id, ok := parseCallback(cb.Data)
	if !ok {
		b.ack(cb.ID, "")
		return nil
	}
	b.log.Info().Int64("telegram_id", cb.From.ID).Str("action", action).Uint("id", id).Msg("callback")

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		b.ack(cb.ID, "")
		return err
	}

	chatID := cb.Message.Chat.ID
	switch action {
	case cbDonePrefix, cbCancelPrefix:
		status := model.StatusDone
		if action == cbCancelPrefix {
			status = model.StatusCanceled
		}
		inst, err := b.svc.Instances.SetStatus(ctx, user.ID, id, status)
		if err != nil {
			b.ack(cb.ID, userMessage(err))
			return ignoreUserError(err)
		}
		b.ack(cb.ID, fmt.Sprintf("%s: %s", titleOf(*inst), inst.Status))
		scope := service.ScopeToday
		if inst.DaySessionID == nil {
			scope = service.ScopeWeek
		}
		return b.handleList(ctx, chatID, cb.From, scope)
	default:
		scope := service.ScopeToday
		if action == cbWeekAddPrefix {
			scope = service.ScopeWeek
		}
		inst, err := b.svc.Instances.EnrollBacklog(ctx, user.ID, id, scope)
		if err != nil {
			b.ack(cb.ID, userMessage(err))
			return ignoreUserError(err)
		}
		b.ack(cb.ID, "Added "+titleOf(*inst))
		return b.handleList(ctx, chatID, cb.From, scope)
	}
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.svc.Users.Provision(ctx, auth.Identity{
		TelegramID: from.ID,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
		Username:   from.UserName,
	})
}

// replyError shows expected service failures to the user and returns the rest.
func (b *Bot) replyError(chatID int64, err error) error {
	if sendErr := b.sendText(chatID, escape(userMessage(err))); sendErr != nil {
		b.log.Warn().Err(sendErr).Msg("send error reply")
	}
	return ignoreUserError(err)
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, b.mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// webAppKeyboard is a reply keyboard whose first row opens the mini app.
// tgbotapi's KeyboardButton has no web_app field, so the markup is declared
// here with the Bot API field names.
type webAppKeyboard struct {
	Keyboard       [][]webAppButton `json:"keyboard"`
	ResizeKeyboard bool             `json:"resize_keyboard"`
}

type webAppButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

func (b *Bot) mainMenuKeyboard() webAppKeyboard {
	kb := webAppKeyboard{
		Keyboard: [][]webAppButton{
			{{Text: menuLabelToday}, {Text: menuLabelWeek}},
			{{Text: menuLabelBacklog}, {Text: menuLabelStats}},
		},
		ResizeKeyboard: true,
	}
	if b.miniAppURL != "" {
		app := []webAppButton{{Text: menuLabelApp, WebApp: &webAppInfo{URL: b.miniAppURL}}}
		kb.Keyboard = append([][]webAppButton{app}, kb.Keyboard...)
	}
	return kb
}

func isUserError(err error) bool {
	return errors.Is(err, service.ErrConflict) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrInvalidInput)
}

func ignoreUserError(err error) error {
	if isUserError(err) {
		return nil
	}
	return err
}

func userMessage(err error) string {
	if !isUserError(err) {
		return "Something went wrong, try again later."
	}
	return normalizeTitle(err.Error())
}
