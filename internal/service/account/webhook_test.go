package account

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blood-donation/internal/domain"
)

func TestVerifyWebhook(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"type":"user.created"}`)
	secret := "whsec_c2VjcmV0LWtleQ=="
	sig := SignWebhook(secret, "msg_1", ts, body)

	assert.NoError(t, VerifyWebhook(secret, "msg_1", ts, "v1,bogus v1,"+sig, body, now))

	tests := []struct {
		name      string
		secret    string
		id        string
		timestamp string
		header    string
		body      []byte
	}{
		{"tampered body", secret, "msg_1", ts, "v1," + sig, []byte(`{"type":"user.deleted"}`)},
		{"other message id", secret, "msg_2", ts, "v1," + sig, body},
		{"wrong version", secret, "msg_1", ts, "v2," + sig, body},
		{"stale timestamp", secret, "msg_1", strconv.FormatInt(now.Add(-6*time.Minute).Unix(), 10), "v1," + sig, body},
		{"missing headers", secret, "", ts, "v1," + sig, body},
		{"no secret configured", "", "msg_1", ts, "v1," + sig, body},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWebhook(tt.secret, tt.id, tt.timestamp, tt.header, tt.body, now)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_29w83sxmDNGwOuEthce5gg56FcC",
			"email_addresses": [
				{"id": "idn_1", "email_address": "old@example.com"},
				{"id": "idn_2", "email_address": "donor@example.com"}
			],
			"primary_email_address_id": "idn_2",
			"first_name": "Linh",
			"last_name": null,
			"public_metadata": {"role": "Hospital"}
		}
	}`)

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, domain.IdentityUserCreated, event.Type)
	assert.Equal(t, "user_29w83sxmDNGwOuEthce5gg56FcC", event.User.ExternalID)
	assert.Equal(t, "donor@example.com", event.User.Email)
	assert.Equal(t, "Linh", *event.User.FirstName)
	assert.Nil(t, event.User.LastName)
	assert.Equal(t, domain.RoleHospital, event.User.Role)

	_, err = ParseWebhook([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ParseWebhook([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
