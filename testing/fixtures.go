package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain-text password of every fixture account
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// RandomPhone returns a unique-enough E.164 style number
func RandomPhone() string {
	return fmt.Sprintf("+1555%07d", rand.Intn(9000000)+1000000)
}

// CreateTestAccount creates an active account; phone may be empty
func (tf *TestFixtures) CreateTestAccount(phone string) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		UUID:         uuid.New(),
		Email:        fmt.Sprintf("host.%d@example.com", rand.Int63()),
		PasswordHash: string(hashedPassword),
		FirstName:    "Hana",
		LastName:     utils.ToPtr("Host"),
		IsActive:     utils.ToPtr(true),
	}
	if phone != "" {
		account.Phone = &phone
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}
	return account, nil
}

// CreateTestRecipient creates a recipient owned by ownerID
func (tf *TestFixtures) CreateTestRecipient(ownerID uint, firstName, phone string, optedOut bool) (*models.Recipient, error) {
	recipient := &models.Recipient{
		CreatedBy: ownerID,
		FirstName: firstName,
		Phone:     phone,
		OptedOut:  optedOut,
	}
	if err := tf.DB.DB.Create(recipient).Error; err != nil {
		return nil, fmt.Errorf("failed to create test recipient: %w", err)
	}
	return recipient, nil
}

// CreateTestEvent creates an event with the given message and links recipients to it
func (tf *TestFixtures) CreateTestEvent(ownerID uint, message string, recipients ...*models.Recipient) (*models.Event, error) {
	event := &models.Event{
		UUID:      uuid.New(),
		CreatedBy: ownerID,
		Title:     "Rooftop dinner",
		Date:      "2026-11-20",
		StartTime: "19:00:00",
		Location:  utils.ToPtr("Rooftop"),
		Message:   message,
		Tone:      utils.DefaultMessageTone,
	}
	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test event: %w", err)
	}

	for _, r := range recipients {
		link := &models.EventRecipient{EventID: event.ID, RecipientID: r.ID}
		if err := tf.DB.DB.Create(link).Error; err != nil {
			return nil, fmt.Errorf("failed to link test recipient: %w", err)
		}
	}
	event.Recipients = recipients
	return event, nil
}

// CreateTestSentMessage writes a delivery log row sent at sentAt
func (tf *TestFixtures) CreateTestSentMessage(event *models.Event, recipient *models.Recipient, providerID string, sentAt time.Time) (*models.SentMessage, error) {
	row := &models.SentMessage{
		EventID:       event.ID,
		RecipientID:   recipient.ID,
		FromAccountID: event.CreatedBy,
		ToPhone:       recipient.Phone,
		MessageBody:   event.Message,
		Channel:       models.ChannelSMS,
		Status:        models.MessageStatusSent,
		SentAt:        sentAt,
	}
	if providerID != "" {
		row.ProviderMessageID = &providerID
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sent message: %w", err)
	}
	return row, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(accountID *uint, action string, success bool) (*models.AuditLog, error) {
	audit := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: utils.ToPtr(fmt.Sprintf("Test %s action", action)),
		Success:     &success,
		IPAddress:   utils.ToPtr("127.0.0.1"),
		UserAgent:   utils.ToPtr("Test User Agent"),
	}
	if !success {
		audit.ErrorMessage = utils.ToPtr("Test failed action")
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}
	return audit, nil
}
