package model

import "time"

// Notification is the durable receipt of a dispatched push notification.
// It is created only after the gateway has returned a notification id and
// is never mutated afterwards.
type Notification struct {
	ID             uint64    `json:"id"`
	NotificationID string    `json:"notificationId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DeliveryStats is the canonical per-notification delivery counter shape
// returned by the tracking endpoint.
type DeliveryStats struct {
	Platform string `json:"platform"`
	Success  int    `json:"success_delivery"`
	Failed   int    `json:"failed_delivery"`
	Errored  int    `json:"errored_delivery"`
	Opened   int    `json:"opened_notification"`
}
