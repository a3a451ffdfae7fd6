// Package profile manages user profiles, extended preferences and the
// experience-point ledger behind the gamification features.
package profile

import (
	"strings"
	"time"
)

// Defaults applied when an XP row is lazily created.
const (
	DefaultXPPoints  = 100
	DefaultXPBadge   = "Welcome"
	inMemoryRecordID = "default"
)

// UserProfile is the basic identity record, one per authenticated user.
type UserProfile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PhoneNumber string     `json:"phone_number"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NotificationPreferences controls which notifications a user receives.
type NotificationPreferences struct {
	EmailNotifications bool `json:"email_notifications"`
	PushNotifications  bool `json:"push_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
	MarketingEmails    bool `json:"marketing_emails"`
	GoalReminders      bool `json:"goal_reminders"`
	LearningReminders  bool `json:"learning_reminders"`
	WeeklySummary      bool `json:"weekly_summary"`
}

// PrivacySettings controls profile visibility and data sharing.
type PrivacySettings struct {
	ProfileVisibility string `json:"profile_visibility"`
	DataSharing       bool   `json:"data_sharing"`
	AnalyticsTracking bool   `json:"analytics_tracking"`
	ThirdPartySharing bool   `json:"third_party_sharing"`
}

// ExtendedProfile is the separate preferences record keyed by user id.
type ExtendedProfile struct {
	ID                      string                   `json:"id"`
	UserID                  string                   `json:"user_id"`
	NotificationPreferences *NotificationPreferences `json:"notification_preferences"`
	PrivacySettings         *PrivacySettings         `json:"privacy_settings"`
	Theme                   string                   `json:"theme_preferences"`
	CreatedAt               time.Time                `json:"created_at"`
	UpdatedAt               time.Time                `json:"updated_at"`
}

// XP is the experience-point ledger: a running total plus earned badges.
// Badge names may repeat; the list is unordered and never deduplicated.
type XP struct {
	ID     string   `json:"id"`
	UserID string   `json:"user_id"`
	Points int      `json:"points"`
	Badges []string `json:"badges"`
}

// AuthMeta carries the auth-provided identity used to synthesize a profile
// when no row exists yet.
type AuthMeta struct {
	UserID   string
	Email    string
	FullName string
}

// SplitName splits a free-form full name into first and last parts. The
// remainder after the first word becomes the last name.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "User", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
