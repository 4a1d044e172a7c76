package enums

import "fmt"

// MediaKind distinguishes where an uploaded object is used.
type MediaKind string

const (
	MediaKindProductImage   MediaKind = "product_image"
	MediaKindSellerLogo     MediaKind = "seller_logo"
	MediaKindChatAttachment MediaKind = "chat_attachment"
)

var validMediaKinds = []MediaKind{
	MediaKindProductImage,
	MediaKindSellerLogo,
	MediaKindChatAttachment,
}

// IsValid reports whether the value is a known MediaKind.
func (m MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}

// MediaStatus tracks the upload lifecycle of a media object.
type MediaStatus string

const (
	MediaStatusPending  MediaStatus = "pending"
	MediaStatusUploaded MediaStatus = "uploaded"
	MediaStatusDeleted  MediaStatus = "deleted"
)

var validMediaStatuses = []MediaStatus{
	MediaStatusPending,
	MediaStatusUploaded,
	MediaStatusDeleted,
}

// IsValid reports whether the value is a known MediaStatus.
func (m MediaStatus) IsValid() bool {
	for _, candidate := range validMediaStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}
