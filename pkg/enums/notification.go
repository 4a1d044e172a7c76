package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeNewOrder        NotificationType = "new_order"
	NotificationTypeOrderStatus     NotificationType = "order_status"
	NotificationTypeLowStock        NotificationType = "low_stock"
	NotificationTypeNewMessage      NotificationType = "new_message"
	NotificationTypeNewReview       NotificationType = "new_review"
	NotificationTypeSystemBroadcast NotificationType = "system_broadcast"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewOrder,
	NotificationTypeOrderStatus,
	NotificationTypeLowStock,
	NotificationTypeNewMessage,
	NotificationTypeNewReview,
	NotificationTypeSystemBroadcast,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// PreferenceKey returns the per-user preference toggle that gates delivery
// of this notification type.
func (n NotificationType) PreferenceKey() string {
	switch n {
	case NotificationTypeNewOrder:
		return "orders"
	case NotificationTypeOrderStatus:
		return "order_updates"
	case NotificationTypeLowStock:
		return "inventory"
	case NotificationTypeNewMessage:
		return "messages"
	case NotificationTypeNewReview:
		return "reviews"
	default:
		return "system"
	}
}
