// internal/models/notification.go
package models

type NotificationType string

const (
	NotificationApproval      NotificationType = "approval"
	NotificationDenial        NotificationType = "denial"
	NotificationContractReady NotificationType = "contract_ready"
)

type Notification struct {
	ID             string           `json:"id"`
	ApplicationID  string           `json:"applicationId"`
	Type           NotificationType `json:"type"`
	Channels       []string         `json:"channels"` // delivered: "email", "sms"
	FailedChannels []string         `json:"failedChannels,omitempty"`
	Status         string           `json:"status"` // "sent", "partial", "disabled"
	SentAt         string           `json:"sentAt"`
}
