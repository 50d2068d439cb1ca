// internal/workers/onboarding/send-decision-notification/models.go
package senddecisionnotification

import "merchant-onboarding/internal/models"

type Input struct {
	ApplicationID    string                  `json:"applicationId"`
	NotificationType models.NotificationType `json:"notificationType"`
}

type Output struct {
	NotificationID     string   `json:"notificationId"`
	NotificationStatus string   `json:"notificationStatus"` // "sent", "partial" or "disabled"
	Channels           []string `json:"channels"`
	FailedChannels     []string `json:"failedChannels,omitempty"`
	SentAt             string   `json:"sentAt"`
}
