// internal/notification/notifier.go
package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	"merchant-onboarding/internal/application"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/terms"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrNotificationMismatch   = errors.New("NOTIFICATION_STATE_MISMATCH")
)

const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
}

// Notifier tells applicants about decisions and contracts by email and,
// when a phone number is on file, SMS.
type Notifier struct {
	config    Config
	ses       SESService
	sns       SNSService
	templates map[models.NotificationType]messageTemplate
	now       func() time.Time
	logger    logger.Logger
}

func NewNotifier(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) (*Notifier, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}
	return &Notifier{
		config:    cfg,
		ses:       sesClient,
		sns:       snsClient,
		templates: tmpl,
		now:       time.Now,
		logger:    logger.Component(log, "notifier"),
	}, nil
}

type messageData struct {
	ApplicationID string
	Name          string
	BusinessName  string
	Reason        string
	RiskScore     int
	Terms         terms.Formatted
	ContractID    string
	NextSteps     []string
}

// Send delivers a notification of typ for app. The type must agree with the
// application's status. Every enabled channel is attempted; the call fails
// only when no channel delivered, so a retry never repeats a delivered
// message. Nothing is sent when every channel is disabled.
func (n *Notifier) Send(ctx context.Context, app *models.Application, typ models.NotificationType) (*models.Notification, error) {
	tmpl, ok := n.templates[typ]
	if !ok {
		return nil, fmt.Errorf("%w: unknown notification type %q", ErrNotificationMismatch, typ)
	}
	if err := checkStatus(app, typ); err != nil {
		return nil, err
	}

	data := messageData{
		ApplicationID: app.ApplicationID,
		Name:          app.PersonalData.FullName(),
		BusinessName:  app.BusinessData.BusinessName,
		Reason:        app.DecisionReason,
		RiskScore:     app.RiskScore,
		ContractID:    app.ContractID,
		NextSteps:     application.ContractNextSteps(),
	}
	if app.Terms != nil {
		data.Terms = terms.Display(*app.Terms)
	}

	subject, err := render(tmpl.subject, data)
	if err != nil {
		return nil, err
	}
	body, err := render(tmpl.body, data)
	if err != nil {
		return nil, err
	}
	sms, err := render(tmpl.sms, data)
	if err != nil {
		return nil, err
	}

	out := &models.Notification{
		ID:            uuid.New().String(),
		ApplicationID: app.ApplicationID,
		Type:          typ,
		Channels:      []string{},
		Status:        StatusDisabled,
	}

	var failures []string
	deliver := func(channel string, send func() error) {
		if err := send(); err != nil {
			metrics.NotificationsSent.WithLabelValues(string(typ), channel, "failure").Inc()
			n.logger.Warn("notification channel failed", map[string]interface{}{
				"applicationId": app.ApplicationID,
				"channel":       channel,
				"error":         err,
			})
			out.FailedChannels = append(out.FailedChannels, channel)
			failures = append(failures, fmt.Sprintf("%s: %v", channel, err))
			return
		}
		metrics.NotificationsSent.WithLabelValues(string(typ), channel, "success").Inc()
		out.Channels = append(out.Channels, channel)
	}

	if n.config.EmailEnabled && app.PersonalData.Email != "" {
		deliver(ChannelEmail, func() error { return n.sendEmail(ctx, app.PersonalData.Email, subject, body) })
	}
	if n.config.SMSEnabled && app.PersonalData.Phone != "" {
		deliver(ChannelSMS, func() error { return n.sendSMS(ctx, app.PersonalData.Phone, sms) })
	}

	switch {
	case len(out.Channels) == 0 && len(failures) > 0:
		return nil, fmt.Errorf("%w: %s: %s", ErrNotificationSendFailed, app.ApplicationID, strings.Join(failures, "; "))
	case len(failures) > 0:
		out.Status = StatusPartial
	case len(out.Channels) > 0:
		out.Status = StatusSent
	}
	out.SentAt = n.now().UTC().Format(time.RFC3339)

	n.logger.Info("notification processed", map[string]interface{}{
		"applicationId": app.ApplicationID,
		"type":          typ,
		"status":        out.Status,
		"channels":      strings.Join(out.Channels, ","),
		"failed":        strings.Join(out.FailedChannels, ","),
	})
	return out, nil
}

func checkStatus(app *models.Application, typ models.NotificationType) error {
	var ok bool
	switch typ {
	case models.NotificationApproval:
		ok = (app.Status == models.StatusApproved || app.Status == models.StatusContracted) && app.Terms != nil
	case models.NotificationDenial:
		ok = app.Status == models.StatusDenied
	case models.NotificationContractReady:
		ok = app.Status == models.StatusContracted && app.ContractID != ""
	}
	if !ok {
		return fmt.Errorf("%w: %s notification for %s in status %s", ErrNotificationMismatch, typ, app.ApplicationID, app.Status)
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	}
	if n.config.SenderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(n.config.SenderID),
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}

func render(t *template.Template, data messageData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
