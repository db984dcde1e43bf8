package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// VerifyTelegramInitData checks the hash the Telegram host attaches to the
// mini-app initdata. An empty bot token skips the check (dev mode).
func VerifyTelegramInitData(initData, botToken string) error {
	if strings.TrimSpace(initData) == "" {
		return fmt.Errorf("init data is empty: %w", ErrInvalidInput)
	}
	if botToken == "" {
		return nil
	}

	query, err := url.ParseQuery(initData)
	if err != nil {
		return fmt.Errorf("parse init data: %w", ErrInvalidInput)
	}

	gotHash := query.Get("hash")
	if gotHash == "" {
		return fmt.Errorf("init data hash is missing: %w", ErrInvalidInput)
	}
	query.Del("hash")

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+query.Get(key))
	}
	checkString := strings.Join(pairs, "\n")

	secretMAC := hmac.New(sha256.New, []byte("WebAppData"))
	secretMAC.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secretMAC.Sum(nil))
	mac.Write([]byte(checkString))

	if !hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(gotHash)) {
		return ErrUnauthorized
	}

	return nil
}

// ResolveAccountID extracts the host user identity from initdata. The
// ledger treats it as an opaque key from here on.
func ResolveAccountID(initData string) (string, error) {
	trimmed := strings.TrimSpace(initData)
	if trimmed == "" {
		return "", ErrInvalidInput
	}

	if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil && parsed > 0 {
		return "tg_" + strconv.FormatInt(parsed, 10), nil
	}

	query, err := url.ParseQuery(trimmed)
	if err == nil && len(query) > 0 {
		if rawUser := query.Get("user"); rawUser != "" {
			var payload struct {
				ID int64 `json:"id"`
			}
			if unmarshalErr := json.Unmarshal([]byte(rawUser), &payload); unmarshalErr == nil && payload.ID > 0 {
				return "tg_" + strconv.FormatInt(payload.ID, 10), nil
			}
		}

		for _, key := range []string{"user_id", "id", "tg_user_id"} {
			if value := query.Get(key); value != "" {
				parsed, parseErr := strconv.ParseInt(value, 10, 64)
				if parseErr == nil && parsed > 0 {
					return "tg_" + strconv.FormatInt(parsed, 10), nil
				}
			}
		}
	}

	return "", ErrInvalidInput
}
