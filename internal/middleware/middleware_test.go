package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blood-donation/internal/domain"
	"blood-donation/internal/service/account"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
}

func decode(t *testing.T, app *fiber.App, req *httptestRequest) (int, ErrorResponse) {
	t.Helper()
	resp, err := app.Test(req.build())
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

type httptestRequest struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func (r *httptestRequest) build() *http.Request {
	req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestErrorHandler_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrBloodUnitNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: unit is USED", domain.ErrInvalidTransition), fiber.StatusConflict, "INVALID_TRANSITION"},
		{domain.ErrInsufficientVolume, fiber.StatusConflict, "INSUFFICIENT_VOLUME"},
		{domain.Validationf("bad"), fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
		{NotFound("nope"), fiber.StatusNotFound, "NOT_FOUND"},
		{errors.New("db exploded"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			status, body := decode(t, app, &httptestRequest{method: "GET", path: "/"})
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.TraceID)
			if tt.status == fiber.StatusInternalServerError {
				assert.Equal(t, "Internal server error", body.Message)
			}
		})
	}
}

type fakeAuth struct {
	accounts map[string]*domain.Account
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.Account, error) {
	if a, ok := f.accounts[token]; ok {
		return a, nil
	}
	return nil, domain.ErrUnauthorized
}

func TestAuthRequiredAndRequireRole(t *testing.T) {
	staff := &domain.Account{ID: uuid.New(), Role: domain.RoleStaff}
	admin := &domain.Account{ID: uuid.New(), Role: domain.RoleAdmin}
	customer := &domain.Account{ID: uuid.New(), Role: domain.RoleCustomer}
	authn := &fakeAuth{accounts: map[string]*domain.Account{"s": staff, "a": admin, "c": customer}}

	app := newApp()
	app.Get("/staff", AuthRequired(authn), RequireRole(domain.RoleStaff), func(c *fiber.Ctx) error {
		return c.SendString(GetCurrentAccountID(c).String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic s", fiber.StatusUnauthorized},
		{"unknown token", "Bearer x", fiber.StatusUnauthorized},
		{"customer", "Bearer c", fiber.StatusForbidden},
		{"staff", "Bearer s", fiber.StatusOK},
		{"admin passes staff", "bearer a", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &httptestRequest{method: "GET", path: "/staff", headers: map[string]string{}}
			if tt.header != "" {
				req.headers["Authorization"] = tt.header
			}
			status, _ := decode(t, app, req)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	secret := "shared-secret"
	app := newApp()
	app.Post("/hook", VerifyWebhook(secret), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	body := `{"type":"user.created","data":{"id":"user_1"}}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := account.SignWebhook(secret, "msg_1", ts, []byte(body))

	status, _ := decode(t, app, &httptestRequest{method: "POST", path: "/hook", body: body, headers: map[string]string{
		"Webhook-Id": "msg_1", "Webhook-Timestamp": ts, "Webhook-Signature": "v1," + sig,
	}})
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body2 := decode(t, app, &httptestRequest{method: "POST", path: "/hook", body: body + " ", headers: map[string]string{
		"Webhook-Id": "msg_1", "Webhook-Timestamp": ts, "Webhook-Signature": "v1," + sig,
	}})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body2.Code)
}
