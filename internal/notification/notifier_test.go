package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/terms"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         []*ses.SendEmailInput
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
}

func createTestConfig() Config {
	return Config{EmailEnabled: true, SMSEnabled: true, FromEmail: "onboarding@payments.test", SenderID: "PAYOPS"}
}

func approvedApplication() *models.Application {
	t := terms.Generate(models.BusinessData{MonthlyProcessingVolume: "400000"}, 75)
	return &models.Application{
		ApplicationID:  "APP-20240601-1A2B3C4D",
		PersonalData:   models.PersonalData{FirstName: "Jane", LastName: "Doe", Email: "jane@acme.test", Phone: "+15550100"},
		BusinessData:   models.BusinessData{BusinessName: "Acme Tech"},
		Status:         models.StatusApproved,
		RiskScore:      75,
		RiskLevel:      models.RiskMedium,
		DecisionReason: "Risk score 75 meets the approval threshold",
		Terms:          &t,
	}
}

func newTestNotifier(t *testing.T, cfg Config, sesMock *MockSESService, snsMock *MockSNSService) *Notifier {
	n, err := NewNotifier(cfg, sesMock, snsMock, logger.NewTestLogger(t))
	require.NoError(t, err)
	n.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestSend_ApprovalEmailAndSMS(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	n := newTestNotifier(t, createTestConfig(), sesMock, snsMock)

	out, err := n.Send(context.Background(), approvedApplication(), models.NotificationApproval)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, []string{ChannelEmail, ChannelSMS}, out.Channels)
	assert.Equal(t, "2024-06-01T12:00:00Z", out.SentAt)
	assert.NotEmpty(t, out.ID)

	require.Len(t, sesMock.calls, 1)
	email := sesMock.calls[0]
	assert.Equal(t, []string{"jane@acme.test"}, email.Destination.ToAddresses)
	assert.Equal(t, "onboarding@payments.test", *email.Source)
	assert.Contains(t, *email.Message.Subject.Data, "APP-20240601-1A2B3C4D")
	body := *email.Message.Body.Text.Data
	assert.Contains(t, body, "Hello Jane Doe")
	assert.Contains(t, body, "3.5% + $0.30 per transaction")
	assert.Contains(t, body, "$30,000.00")
	assert.Contains(t, body, "$240,000.00")
	assert.Contains(t, body, "Next business day")

	require.Len(t, snsMock.calls, 1)
	assert.Equal(t, "+15550100", *snsMock.calls[0].PhoneNumber)
	assert.Equal(t, "PAYOPS", *snsMock.calls[0].MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
}

func TestSend_DenialAndContractReady(t *testing.T) {
	sesMock := &MockSESService{}
	cfg := createTestConfig()
	cfg.SMSEnabled = false
	n := newTestNotifier(t, cfg, sesMock, &MockSNSService{})

	denied := &models.Application{
		ApplicationID:  "APP-2",
		PersonalData:   models.PersonalData{FirstName: "Sam", Email: "sam@coins.test"},
		BusinessData:   models.BusinessData{BusinessName: "Coins"},
		Status:         models.StatusDenied,
		DecisionReason: "Risk score 35 is below the approval threshold",
	}
	out, err := n.Send(context.Background(), denied, models.NotificationDenial)
	require.NoError(t, err)
	assert.Equal(t, []string{ChannelEmail}, out.Channels)
	assert.Contains(t, *sesMock.calls[0].Message.Body.Text.Data, "Risk score 35")

	contracted := approvedApplication()
	contracted.Status = models.StatusContracted
	contracted.ContractID = "CONTRACT-20240601-AAAAAAAA"
	_, err = n.Send(context.Background(), contracted, models.NotificationContractReady)
	require.NoError(t, err)
	body := *sesMock.calls[1].Message.Body.Text.Data
	assert.Contains(t, body, "CONTRACT-20240601-AAAAAAAA")
	assert.Contains(t, body, "  - Digital signature required")
}

func TestSend_StatusMismatch(t *testing.T) {
	n := newTestNotifier(t, createTestConfig(), &MockSESService{}, &MockSNSService{})

	tests := []struct {
		name string
		app  *models.Application
		typ  models.NotificationType
	}{
		{"approval for denied", &models.Application{Status: models.StatusDenied}, models.NotificationApproval},
		{"denial for approved", approvedApplication(), models.NotificationDenial},
		{"contract for approved", approvedApplication(), models.NotificationContractReady},
		{"unknown type", approvedApplication(), models.NotificationType("welcome")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Send(context.Background(), tt.app, tt.typ)
			assert.True(t, errors.Is(err, ErrNotificationMismatch))
		})
	}
}

func failingSES(msg string) *MockSESService {
	return &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New(msg)
		},
	}
}

func failingSNS(msg string) *MockSNSService {
	return &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New(msg)
		},
	}
}

func TestSend_SMSFailureAfterEmailIsPartial(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, failingSNS("sns down")
	n := newTestNotifier(t, createTestConfig(), sesMock, snsMock)

	out, err := n.Send(context.Background(), approvedApplication(), models.NotificationApproval)

	require.NoError(t, err)
	assert.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, []string{ChannelEmail}, out.Channels)
	assert.Equal(t, []string{ChannelSMS}, out.FailedChannels)
	assert.Len(t, sesMock.calls, 1)
	assert.Len(t, snsMock.calls, 1)
}

func TestSend_EmailFailureStillSendsSMS(t *testing.T) {
	sesMock, snsMock := failingSES("Throttling: Maximum sending rate exceeded"), &MockSNSService{}
	n := newTestNotifier(t, createTestConfig(), sesMock, snsMock)

	out, err := n.Send(context.Background(), approvedApplication(), models.NotificationApproval)

	require.NoError(t, err)
	assert.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, []string{ChannelSMS}, out.Channels)
	assert.Equal(t, []string{ChannelEmail}, out.FailedChannels)
	assert.Len(t, snsMock.calls, 1)
}

func TestSend_AllChannelsFailing(t *testing.T) {
	sesMock, snsMock := failingSES("ses down"), failingSNS("sns down")
	n := newTestNotifier(t, createTestConfig(), sesMock, snsMock)

	out, err := n.Send(context.Background(), approvedApplication(), models.NotificationApproval)

	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotificationSendFailed))
	assert.Contains(t, err.Error(), "email: ses down")
	assert.Contains(t, err.Error(), "sms: sns down")
}

func TestSend_AllChannelsDisabled(t *testing.T) {
	sesMock, snsMock := &MockSESService{}, &MockSNSService{}
	n := newTestNotifier(t, Config{}, sesMock, snsMock)

	out, err := n.Send(context.Background(), approvedApplication(), models.NotificationApproval)

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
	assert.Empty(t, out.Channels)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)
}
