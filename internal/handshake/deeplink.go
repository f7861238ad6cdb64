package handshake

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DeepLink builds the bot deep link opened in the popup. The intended
// post-auth redirect rides along base64url-encoded so the external chat-bot
// flow can hand it back untouched.
func DeepLink(botURL, redirect string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(redirect))
	sep := "?"
	if strings.Contains(botURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sstart=%s", botURL, sep, payload)
}

// DecodeDeepLinkPayload recovers the redirect path from the deep-link start
// parameter. A payload that does not decode to an absolute path is rejected.
func DecodeDeepLinkPayload(payload string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("deep link payload: %w", err)
	}
	redirect := string(raw)
	if !strings.HasPrefix(redirect, "/") {
		return "", fmt.Errorf("deep link payload: not a path: %q", redirect)
	}
	return redirect, nil
}
