package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"routine-planner/internal/service"
)

// Identity is the Telegram user a request acts for.
type Identity struct {
	TelegramID int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
}

// ValidateInitData checks the Mini App initData signature against the bot
// token and returns the embedded user.
//
// The data-check string is every field except hash, sorted by key and
// joined as key=value lines. The signing key is HMAC-SHA256("WebAppData", token).
func ValidateInitData(initData, botToken string) (Identity, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed initData", service.ErrUnauthorized)
	}
	received := values.Get("hash")
	if received == "" {
		return Identity{}, fmt.Errorf("%w: missing initData hash", service.ErrUnauthorized)
	}
	if botToken == "" {
		return Identity{}, fmt.Errorf("%w: bot token is not configured", service.ErrUnauthorized)
	}

	expected := SignInitData(values, botToken)
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return Identity{}, fmt.Errorf("%w: invalid Telegram initData signature", service.ErrUnauthorized)
	}

	raw := values.Get("user")
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing user payload", service.ErrUnauthorized)
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.TelegramID == 0 {
		return Identity{}, fmt.Errorf("%w: bad user payload", service.ErrUnauthorized)
	}
	return id, nil
}

// SignInitData returns the hex signature Telegram would attach to values.
// Any hash field in values is ignored.
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
