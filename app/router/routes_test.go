package router_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/partyline/app/handlers"
	"github.com/amirphl/partyline/app/middleware"
	"github.com/amirphl/partyline/app/router"
	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	testingutil "github.com/amirphl/partyline/testing"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app       *fiber.App
	fixtures  *testingutil.TestFixtures
	transport *services.MockTransport
	tokens    services.TokenService
	sent      repository.SentMessageRepository
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = testDB.TeardownTestDB() })

	cfg := &config.ProductionConfig{
		Security: config.SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
			XFrameOptions:  "DENY",
			ReferrerPolicy: "no-referrer",
		},
		JWT: config.JWTConfig{
			SecretKey:       "router-test-secret-key-long-enough",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			Issuer:          "partyline-test",
			Audience:        "partyline-test",
		},
		Messaging: config.MessagingConfig{
			Provider:            "mock",
			SMSFrom:             "+15550000000",
			PublicBaseURL:       "https://partyline.example.com",
			SendTimeout:         time.Second,
			DispatchConcurrency: 2,
		},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Deployment: config.DeploymentConfig{Environment: "development", Version: "test"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testDB.DB

	accounts := repository.NewAccountRepository(db)
	recipients := repository.NewRecipientRepository(db)
	events := repository.NewEventRepository(db)
	sent := repository.NewSentMessageRepository(db)
	optEvents := repository.NewOptEventRepository(db)
	audits := repository.NewAuditLogRepository(db)

	tokens, err := services.NewTokenService(cfg.JWT, services.NewMemoryRevocationStore())
	require.NoError(t, err)
	transport := services.NewMockTransport()
	publisher := services.NewMemoryPublisher()

	recipientFlow := businessflow.NewRecipientFlow(recipients, audits)
	eventFlow := businessflow.NewEventFlow(events, recipients, audits, recipientFlow, db)
	dispatchFlow := businessflow.NewDispatchFlow(events, recipients, sent, audits, recipientFlow,
		transport, publisher, cfg.Messaging, logger)
	reconcileFlow := businessflow.NewReconcileFlow(sent, publisher, logger)
	inboundFlow := businessflow.NewInboundFlow(accounts, recipients, sent, optEvents,
		transport, publisher, cfg.Messaging, db, logger)
	messageFlow := businessflow.NewMessageFlow(events, sent, audits, nil, nil, logger)

	v := handlers.NewValidator()
	r := router.NewFiberRouter(cfg, router.Handlers{
		Auth: handlers.NewAuthHandler(
			businessflow.NewSignupFlow(accounts, audits, tokens, bcrypt.MinCost, db),
			businessflow.NewLoginFlow(accounts, audits, tokens),
			v, logger),
		Profile:   handlers.NewProfileHandler(businessflow.NewProfileFlow(accounts, audits), v, logger),
		Recipient: handlers.NewRecipientHandler(recipientFlow, v, logger),
		Event:     handlers.NewEventHandler(eventFlow, dispatchFlow, messageFlow, v, logger),
		Message:   handlers.NewMessageHandler(dispatchFlow, messageFlow, v, logger),
		Webhook:   handlers.NewWebhookHandler(reconcileFlow, inboundFlow, logger),
	}, middleware.NewAuthMiddleware(tokens), logger)
	r.SetupRoutes()

	return &testServer{
		app:       r.GetApp(),
		fixtures:  testingutil.NewTestFixtures(testDB),
		transport: transport,
		tokens:    tokens,
		sent:      sent,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return resp
}

func (s *testServer) bearer(t *testing.T, accountID uint) string {
	t.Helper()
	pair, err := s.tokens.GenerateTokens(accountID)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func jsonRequest(method, target, body, auth string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("Health", func(t *testing.T) {
		resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		env := decode(t, resp)
		assert.True(t, env.Success)
		assert.Contains(t, string(env.Data), `"service":"partyline-api"`)
	})

	t.Run("SwaggerInDevelopment", func(t *testing.T) {
		resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/swagger.json", nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Partyline API")
	})

	t.Run("NotFound", func(t *testing.T) {
		resp := s.do(t, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decode(t, resp).Error.Code)
	})

	t.Run("Metrics", func(t *testing.T) {
		s.do(t, httptest.NewRequest(http.MethodGet, "/nowhere", nil)).Body.Close()
		resp := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "partyline_http_requests_total")
	})
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("ProtectedRouteRequiresToken", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodGet, "/api/v1/profile", "", ""))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "MISSING_AUTHORIZATION_HEADER", decode(t, resp).Error.Code)
	})

	t.Run("MalformedToken", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodGet, "/api/v1/profile", "", "Bearer not-a-jwt"))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("SignupLoginLogout", func(t *testing.T) {
		signup := `{"email":"Host@Example.com","password":"Secret123","confirm_password":"Secret123","first_name":"Hana","phone":"+15557770000"}`
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signup", signup, ""))
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signup", signup, ""))
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		resp.Body.Close()

		resp = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"host@example.com","password":"Wrong1234"}`, ""))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decode(t, resp).Error.Code)

		resp = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"host@example.com","password":"Secret123"}`, ""))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		env := decode(t, resp)
		var auth struct {
			Session struct {
				AccessToken string `json:"access_token"`
			} `json:"session"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &auth))
		require.NotEmpty(t, auth.Session.AccessToken)
		bearer := "Bearer " + auth.Session.AccessToken

		resp = s.do(t, jsonRequest(http.MethodGet, "/api/v1/profile", "", bearer))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, string(decode(t, resp).Data), "host@example.com")

		resp = s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/logout", "", bearer))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = s.do(t, jsonRequest(http.MethodGet, "/api/v1/profile", "", bearer))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "TOKEN_REVOKED", decode(t, resp).Error.Code)
	})

	t.Run("SignupValidation", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/signup",
			`{"email":"x@example.com","password":"weakpass","confirm_password":"weakpass","first_name":"X"}`, ""))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestRecipientAndDispatchRoutes(t *testing.T) {
	s := newTestServer(t)

	owner, err := s.fixtures.CreateTestAccount("")
	require.NoError(t, err)
	bearer := s.bearer(t, owner.ID)

	t.Run("CreateRecipient", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/recipients", `{"first_name":"Ana","phone":"+15551234567"}`, bearer))
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = s.do(t, jsonRequest(http.MethodPost, "/api/v1/recipients", `{"first_name":"Bad","phone":"not a phone"}`, bearer))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		resp = s.do(t, jsonRequest(http.MethodGet, "/api/v1/recipients?search=an", "", bearer))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, string(decode(t, resp).Data), "+15551234567")
	})

	t.Run("DispatchEvent", func(t *testing.T) {
		ben, err := s.fixtures.CreateTestRecipient(owner.ID, "Ben", "+15551234568", false)
		require.NoError(t, err)
		event, err := s.fixtures.CreateTestEvent(owner.ID, "Hi [Name], party at 8!", ben)
		require.NoError(t, err)

		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/events/"+event.UUID.String()+"/dispatch", `{"channel":"sms"}`, bearer))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		env := decode(t, resp)
		var out struct {
			Summary struct {
				Total int `json:"total"`
				Sent  int `json:"sent"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &out))
		assert.Equal(t, 1, out.Summary.Total)
		assert.Equal(t, 1, out.Summary.Sent)

		sent := s.transport.SentTo("+15551234568")
		require.Len(t, sent, 1)
		assert.Equal(t, "Hi Ben, party at 8!", sent[0].Message.Body)

		resp = s.do(t, jsonRequest(http.MethodGet, "/api/v1/events/"+event.UUID.String()+"/messages", "", bearer))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, string(decode(t, resp).Data), "Hi Ben, party at 8!")
	})

	t.Run("DispatchBadChannel", func(t *testing.T) {
		event, err := s.fixtures.CreateTestEvent(owner.ID, "Hello")
		require.NoError(t, err)
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/events/"+event.UUID.String()+"/dispatch", `{"channel":"fax"}`, bearer))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("DispatchInvalidUUID", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/events/nope/dispatch", `{"channel":"sms"}`, bearer))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("SendMessageTransportFailure", func(t *testing.T) {
		s.transport.FailFor("+15551230000")
		resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/messages/send",
			`{"to":"+15551230000","body":"hi","channel":"sms"}`, bearer))
		assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "TRANSPORT_FAILED", decode(t, resp).Error.Code)
	})

	t.Run("Export", func(t *testing.T) {
		resp := s.do(t, jsonRequest(http.MethodGet, "/api/v1/messages/export", "", bearer))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=")
		assert.Empty(t, resp.Header.Get("X-Archive-Key"))
		assert.NotEmpty(t, readBody(t, resp))
	})
}

func TestWebhookRoutes(t *testing.T) {
	s := newTestServer(t)

	owner, err := s.fixtures.CreateTestAccount("")
	require.NoError(t, err)
	guest, err := s.fixtures.CreateTestRecipient(owner.ID, "Ana", "+15551234567", false)
	require.NoError(t, err)
	event, err := s.fixtures.CreateTestEvent(owner.ID, "Hi [Name]", guest)
	require.NoError(t, err)
	_, err = s.fixtures.CreateTestSentMessage(event, guest, "SMrouter0001", time.Now().UTC())
	require.NoError(t, err)

	t.Run("StatusCallback", func(t *testing.T) {
		resp := s.do(t, formRequest("/api/v1/webhooks/messaging/status", url.Values{
			"MessageSid":    {"SMrouter0001"},
			"MessageStatus": {"delivered"},
		}))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"matched":true,"applied":true}`, string(decode(t, resp).Data))

		row, err := s.sent.ByProviderMessageID(testingutil.CreateTestContext(), "SMrouter0001")
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, models.MessageStatusDelivered, row.Status)
	})

	t.Run("StatusCallbackMissingFields", func(t *testing.T) {
		resp := s.do(t, formRequest("/api/v1/webhooks/messaging/status", url.Values{"MessageSid": {"SMrouter0001"}}))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, resp).Error.Code)
	})

	t.Run("InboundEchoesWithoutForwardPhone", func(t *testing.T) {
		resp := s.do(t, formRequest("/api/v1/webhooks/messaging/inbound", url.Values{
			"From": {"+15551234567"},
			"To":   {"+15550000000"},
			"Body": {"See you there"},
		}))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/xml")
		body := readBody(t, resp)
		assert.True(t, strings.HasPrefix(body, "<?xml"))
		assert.Contains(t, body, "<Response><Message>You said: See you there</Message></Response>")
	})

	t.Run("InboundUnknownSender", func(t *testing.T) {
		resp := s.do(t, formRequest("/api/v1/webhooks/messaging/inbound", url.Values{
			"From": {"+15559998888"},
			"Body": {"who is this"},
		}))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NO_PRIOR_MESSAGE", decode(t, resp).Error.Code)
	})

	t.Run("InboundMissingBody", func(t *testing.T) {
		resp := s.do(t, formRequest("/api/v1/webhooks/messaging/inbound", url.Values{"From": {"+15551234567"}}))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("InboundForwardsToHost", func(t *testing.T) {
		host, err := s.fixtures.CreateTestAccount("+15550002000")
		require.NoError(t, err)
		g, err := s.fixtures.CreateTestRecipient(host.ID, "Cy", "+15551112222", false)
		require.NoError(t, err)
		e, err := s.fixtures.CreateTestEvent(host.ID, "Hi [Name]", g)
		require.NoError(t, err)
		_, err = s.fixtures.CreateTestSentMessage(e, g, "SMrouter0002", time.Now().UTC())
		require.NoError(t, err)

		resp := s.do(t, formRequest("/api/v1/webhooks/messaging/inbound", url.Values{
			"From": {"+15551112222"},
			"To":   {"+15550000000"},
			"Body": {"Count me in"},
		}))
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"success":true}`, readBody(t, resp))

		forwarded := s.transport.SentTo("+15550002000")
		require.Len(t, forwarded, 1)
		assert.Equal(t, "Reply from +15551112222: Count me in", forwarded[0].Message.Body)
	})
}
