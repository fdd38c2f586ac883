// internal/workers/communication/send-notification/models.go
package sendnotification

type Input struct {
	CustomerID       string                 `json:"customerId"`
	NotificationType string                 `json:"notificationType"`
	OrderID          string                 `json:"orderId,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeOrderConfirmed = "order_confirmed"
	TypeOrderCancelled = "order_cancelled"
	TypeOrderDelayed   = "order_delayed"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
