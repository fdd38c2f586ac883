// internal/workers/communication/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodexpress-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "orders@foodexpress.pk",
		SMSSenderID:  "FOODEXP",
		AWSRegion:    "ap-south-1",
		Timeout:      30 * time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		CustomerID:       "cust-001",
		NotificationType: TypeOrderConfirmed,
		OrderID:          "ord-42",
		Metadata: map[string]interface{}{
			"totalPrice": 1050,
			"etaMinutes": 21,
			"branchName": "Gulberg",
		},
	}
}

func newTestHandler(t *testing.T, cfg *Config, contactRows *sqlmock.Rows) (*Handler, *MockSESService, *MockSNSService) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if contactRows != nil {
		mock.ExpectQuery("SELECT email, phone FROM customers").WillReturnRows(contactRows)
	} else {
		mock.ExpectQuery("SELECT email, phone FROM customers").WillReturnError(errors.New("no rows"))
	}

	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return &sns.PublishOutput{}, nil
		},
	}

	h := &Handler{
		config:      cfg,
		db:          db,
		logger:      logger.NewTestLogger(t),
		sesClient:   sesMock,
		snsClient:   snsMock,
		templateMap: orderTemplates(),
	}
	return h, sesMock, snsMock
}

func contactRow(email, phone string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone)
}

func TestExecute_SendsEmailAndSMS(t *testing.T) {
	var gotSubject, gotBody, gotSMS string

	h, sesMock, snsMock := newTestHandler(t, createTestConfig(), contactRow("ali@example.com", "+923001234567"))
	sesMock.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		gotSubject = *params.Message.Subject.Data
		gotBody = *params.Message.Body.Text.Data
		assert.Equal(t, []string{"ali@example.com"}, params.Destination.ToAddresses)
		return &ses.SendEmailOutput{}, nil
	}
	snsMock.PublishFunc = func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		gotSMS = *params.Message
		assert.Equal(t, "+923001234567", *params.PhoneNumber)
		assert.Equal(t, "FOODEXP", *params.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
		return &sns.PublishOutput{}, nil
	}

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.NotEmpty(t, out.NotificationID)
	assert.Equal(t, "Order ord-42 confirmed", gotSubject)
	assert.Contains(t, gotBody, "Rs. 1050")
	assert.Contains(t, gotBody, "21 minutes")
	assert.Contains(t, gotBody, "Gulberg")
	assert.Contains(t, gotSMS, "ord-42")
}

func TestExecute_MissingPlaceholdersAreStripped(t *testing.T) {
	var gotBody string

	h, sesMock, _ := newTestHandler(t, createTestConfig(), contactRow("ali@example.com", ""))
	sesMock.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		gotBody = *params.Message.Body.Text.Data
		return &ses.SendEmailOutput{}, nil
	}

	input := createTestInput()
	input.Metadata = nil

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
	assert.NotContains(t, gotBody, "{{")
	assert.NotContains(t, gotBody, "}}")
}

func TestExecute_UnknownCustomerIsDisabled(t *testing.T) {
	h, _, _ := newTestHandler(t, createTestConfig(), nil)

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
}

func TestExecute_UnknownTemplateFails(t *testing.T) {
	h, _, _ := newTestHandler(t, createTestConfig(), contactRow("ali@example.com", ""))

	input := createTestInput()
	input.NotificationType = "pizza_party"

	_, err := h.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template not found")
}

func TestExecute_EmailFailureReportsFailedStatus(t *testing.T) {
	h, sesMock, _ := newTestHandler(t, createTestConfig(), contactRow("ali@example.com", "+923001234567"))
	sesMock.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("ses throttled")
	}

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
}

func TestExecute_SMSFailureReportsFailedStatus(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false

	h, _, snsMock := newTestHandler(t, cfg, contactRow("", "+923001234567"))
	snsMock.PublishFunc = func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("sns unavailable")
	}

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
}

func TestExecute_AllChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	h, _, _ := newTestHandler(t, cfg, contactRow("ali@example.com", "+923001234567"))

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
}

func TestExecute_MissingCustomerID(t *testing.T) {
	h, _, _ := newTestHandler(t, createTestConfig(), nil)

	_, err := h.Execute(context.Background(), &Input{NotificationType: TypeOrderConfirmed})
	assert.Error(t, err)
}

func TestExecute_CancelledTemplate(t *testing.T) {
	var gotSubject string

	cfg := createTestConfig()
	cfg.SMSEnabled = false

	h, sesMock, _ := newTestHandler(t, cfg, contactRow("ali@example.com", ""))
	sesMock.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		gotSubject = *params.Message.Subject.Data
		return &ses.SendEmailOutput{}, nil
	}

	input := createTestInput()
	input.NotificationType = TypeOrderCancelled

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, "Order ord-42 cancelled", gotSubject)
}
