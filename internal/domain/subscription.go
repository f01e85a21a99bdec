package domain

import "time"

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive       SubscriptionStatus = "active"
	SubscriptionStatusUnsubscribed SubscriptionStatus = "unsubscribed"
)

// IsValid reports whether s is a known subscription status.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusUnsubscribed:
		return true
	}
	return false
}

// Subscription is a stored consent record for notification delivery.
// Email and PhoneNumber are unique across all records regardless of Status.
type Subscription struct {
	ID                  string             `json:"id"`
	FirstName           string             `json:"firstName"`
	LastName            string             `json:"lastName"`
	Email               string             `json:"email"`
	PhoneNumber         string             `json:"phoneNumber"`
	AcceptNotifications bool               `json:"acceptNotifications"`
	AcceptPromotions    bool               `json:"acceptPromotions"`
	Status              SubscriptionStatus `json:"status"`
	SubscribedAt        time.Time          `json:"subscribedAt"`
}

// SubscriptionStats is an aggregate over the stored subscriptions.
type SubscriptionStats struct {
	TotalSubscribers         int     `json:"totalSubscribers"`
	TotalUnsubscribed        int     `json:"totalUnsubscribed"`
	PromotionOptIn           int     `json:"promotionOptIn"`
	PromotionOptInPercentage float64 `json:"promotionOptInPercentage"`
}
