package account

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blood-donation/internal/domain"
)

// WebhookTolerance is how far a webhook timestamp may drift from the server clock.
const WebhookTolerance = 5 * time.Minute

// SignWebhook returns the base64 HMAC-SHA256 of "id.timestamp.body".
func SignWebhook(secret, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, webhookKey(secret))
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// webhookKey accepts both raw secrets and "whsec_"-prefixed base64 secrets.
func webhookKey(secret string) []byte {
	if rest, ok := strings.CutPrefix(secret, "whsec_"); ok {
		if key, err := base64.StdEncoding.DecodeString(rest); err == nil {
			return key
		}
	}
	return []byte(secret)
}

// VerifyWebhook checks the signature header, a space separated list of
// "v1,<signature>" entries, and the timestamp tolerance.
func VerifyWebhook(secret, id, timestamp, signatures string, body []byte, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: webhook secret is not configured", domain.ErrUnauthorized)
	}
	if id == "" || timestamp == "" || signatures == "" {
		return fmt.Errorf("%w: missing webhook headers", domain.ErrUnauthorized)
	}
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid webhook timestamp", domain.ErrUnauthorized)
	}
	sent := time.Unix(unix, 0)
	if sent.Before(now.Add(-WebhookTolerance)) || sent.After(now.Add(WebhookTolerance)) {
		return fmt.Errorf("%w: webhook timestamp outside tolerance", domain.ErrUnauthorized)
	}

	expected := SignWebhook(secret, id, timestamp, body)
	for _, candidate := range strings.Fields(signatures) {
		version, sig, ok := strings.Cut(candidate, ",")
		if ok && version == "v1" && hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("%w: webhook signature mismatch", domain.ErrUnauthorized)
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		EmailAddresses []struct {
			ID           string `json:"id"`
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
		PrimaryEmailAddressID string  `json:"primary_email_address_id"`
		FirstName             *string `json:"first_name"`
		LastName              *string `json:"last_name"`
		ImageURL              *string `json:"image_url"`
		PublicMetadata        struct {
			Role string `json:"role"`
		} `json:"public_metadata"`
	} `json:"data"`
}

// ParseWebhook decodes an identity-provider event body.
func ParseWebhook(body []byte) (domain.IdentityEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.IdentityEvent{}, domain.Validationf("malformed webhook payload: %v", err)
	}
	if p.Type == "" {
		return domain.IdentityEvent{}, domain.Validationf("webhook event type is missing")
	}

	user := domain.IdentityUser{
		ExternalID: p.Data.ID,
		FirstName:  p.Data.FirstName,
		LastName:   p.Data.LastName,
		AvatarURL:  p.Data.ImageURL,
		Role:       domain.AccountRole(strings.ToLower(p.Data.PublicMetadata.Role)),
	}
	for _, e := range p.Data.EmailAddresses {
		if user.Email == "" || e.ID == p.Data.PrimaryEmailAddressID {
			user.Email = e.EmailAddress
		}
	}
	return domain.IdentityEvent{Type: p.Type, User: user}, nil
}
