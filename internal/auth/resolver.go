package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
	"routine-planner/internal/service"
)

// Header names the resolver reads.
const (
	HeaderInitData = "X-Telegram-Init-Data"
	HeaderUserID   = "X-Telegram-User-Id"
)

// Defaults seed the settings row of a user seen for the first time.
type Defaults struct {
	Currency      string
	DailyPenalty  decimal.Decimal
	WeeklyPenalty decimal.Decimal
}

// Resolver turns request credentials into a stored user, provisioning the
// user and their settings on first sight.
type Resolver struct {
	store     *repository.Store
	botToken  string
	allowFake bool
	defaults  Defaults
	log       zerolog.Logger
}

func NewResolver(store *repository.Store, botToken string, allowFake bool, defaults Defaults, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:     store,
		botToken:  botToken,
		allowFake: allowFake,
		defaults:  defaults,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

// FromRequest authenticates r. Signed initData comes from the
// X-Telegram-Init-Data header or an "Authorization: tma <initData>" header.
// Without it, and only when fake auth is allowed, X-Telegram-User-Id names a
// local user.
func (res *Resolver) FromRequest(r *http.Request) (*model.User, error) {
	initData := strings.TrimSpace(r.Header.Get(HeaderInitData))
	if authz := r.Header.Get("Authorization"); initData == "" && len(authz) > 4 && strings.EqualFold(authz[:4], "tma ") {
		initData = strings.TrimSpace(authz[4:])
	}
	if initData != "" {
		id, err := ValidateInitData(initData, res.botToken)
		if err != nil {
			return nil, err
		}
		return res.Provision(r.Context(), id)
	}

	if res.allowFake {
		if raw := strings.TrimSpace(r.Header.Get(HeaderUserID)); raw != "" {
			tgID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || tgID <= 0 {
				return nil, fmt.Errorf("%w: bad %s header", service.ErrUnauthorized, HeaderUserID)
			}
			return res.Local(r.Context(), tgID)
		}
	}
	return nil, fmt.Errorf("%w: missing authentication headers", service.ErrUnauthorized)
}

// Provision upserts the Telegram user, refreshing the profile fields, and
// creates the settings row in the same transaction if it is missing.
func (res *Resolver) Provision(ctx context.Context, id Identity) (*model.User, error) {
	var user *model.User
	err := res.store.WithinTx(ctx, func(tx *repository.Store) error {
		var (
			created bool
			err     error
		)
		user, created, err = tx.Users.UpsertFromTelegram(ctx, id.TelegramID, id.FirstName, id.LastName, id.Username)
		if err != nil {
			return err
		}
		if created {
			res.log.Info().Int64("telegram_id", id.TelegramID).Uint("user_id", user.ID).Msg("user provisioned")
		}
		return res.ensureSettings(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Local returns the debug user for a Telegram id, creating it as
// local_<id> if needed. An existing user is returned untouched.
func (res *Resolver) Local(ctx context.Context, telegramID int64) (*model.User, error) {
	var user *model.User
	err := res.store.WithinTx(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.FindByTelegramID(ctx, telegramID)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			user, _, err = tx.Users.UpsertFromTelegram(ctx, telegramID, "Local", "User", fmt.Sprintf("local_%d", telegramID))
			if err != nil {
				return err
			}
		default:
			return err
		}
		return res.ensureSettings(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (res *Resolver) ensureSettings(ctx context.Context, tx *repository.Store, userID uint) error {
	_, err := tx.Settings.GetByUser(ctx, userID)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return tx.Settings.Create(ctx, &model.UserSettings{
		UserID:               userID,
		Currency:             res.defaults.Currency,
		PenaltyDailyDefault:  res.defaults.DailyPenalty,
		PenaltyWeeklyDefault: res.defaults.WeeklyPenalty,
	})
}
