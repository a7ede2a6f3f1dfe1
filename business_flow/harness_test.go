package businessflow_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirphl/partyline/app/services"
	businessflow "github.com/amirphl/partyline/business_flow"
	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/repository"
	testingutil "github.com/amirphl/partyline/testing"
	"github.com/stretchr/testify/require"
)

const (
	testSMSSender  = "+15550000000"
	testPublicBase = "https://partyline.example.com"
)

// harness wires flows to a fresh database, a mock transport and an in-memory publisher
type harness struct {
	db        *testingutil.TestDB
	fixtures  *testingutil.TestFixtures
	transport *services.MockTransport
	publisher *services.MemoryPublisher
	messaging config.MessagingConfig

	accounts     repository.AccountRepository
	recipients   repository.RecipientRepository
	events       repository.EventRepository
	sentMessages repository.SentMessageRepository
	optEvents    repository.OptEventRepository
	audits       repository.AuditLogRepository

	recipientFlow businessflow.RecipientFlow
	eventFlow     businessflow.EventFlow
	dispatchFlow  businessflow.DispatchFlow
	reconcileFlow businessflow.ReconcileFlow
	inboundFlow   businessflow.InboundFlow
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = testDB.TeardownTestDB() })

	h := &harness{
		db:        testDB,
		fixtures:  testingutil.NewTestFixtures(testDB),
		transport: services.NewMockTransport(),
		publisher: services.NewMemoryPublisher(),
		messaging: config.MessagingConfig{
			Provider:            "mock",
			SMSFrom:             testSMSSender,
			PublicBaseURL:       testPublicBase,
			SendTimeout:         time.Second,
			DispatchConcurrency: 4,
		},
		accounts:     repository.NewAccountRepository(testDB.DB),
		recipients:   repository.NewRecipientRepository(testDB.DB),
		events:       repository.NewEventRepository(testDB.DB),
		sentMessages: repository.NewSentMessageRepository(testDB.DB),
		optEvents:    repository.NewOptEventRepository(testDB.DB),
		audits:       repository.NewAuditLogRepository(testDB.DB),
	}

	logger := discardLogger()
	h.recipientFlow = businessflow.NewRecipientFlow(h.recipients, h.audits)
	h.eventFlow = businessflow.NewEventFlow(h.events, h.recipients, h.audits, h.recipientFlow, testDB.DB)
	h.dispatchFlow = businessflow.NewDispatchFlow(h.events, h.recipients, h.sentMessages, h.audits,
		h.recipientFlow, h.transport, h.publisher, h.messaging, logger)
	h.reconcileFlow = businessflow.NewReconcileFlow(h.sentMessages, h.publisher, logger)
	h.inboundFlow = businessflow.NewInboundFlow(h.accounts, h.recipients, h.sentMessages, h.optEvents,
		h.transport, h.publisher, h.messaging, testDB.DB, logger)
	return h
}

func (h *harness) account(t *testing.T, phone string) *models.Account {
	t.Helper()
	a, err := h.fixtures.CreateTestAccount(phone)
	require.NoError(t, err)
	return a
}

func (h *harness) recipient(t *testing.T, ownerID uint, firstName, phone string, optedOut bool) *models.Recipient {
	t.Helper()
	r, err := h.fixtures.CreateTestRecipient(ownerID, firstName, phone, optedOut)
	require.NoError(t, err)
	return r
}

func (h *harness) event(t *testing.T, ownerID uint, message string, recipients ...*models.Recipient) *models.Event {
	t.Helper()
	e, err := h.fixtures.CreateTestEvent(ownerID, message, recipients...)
	require.NoError(t, err)
	return e
}

func (h *harness) sentCount(t *testing.T, filter models.SentMessageFilter) int64 {
	t.Helper()
	n, err := h.sentMessages.Count(testingutil.CreateTestContext(), filter)
	require.NoError(t, err)
	return n
}
