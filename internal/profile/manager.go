package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// Manager owns one user's profile, extended preferences and XP ledger.
// Every user has exactly one profile row and one XP row; both are lazily
// created on first access. When persistence is unavailable the synthesized
// records live in memory only and carry the in-memory record id.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger
	repo   RepositoryPort
	meta   AuthMeta

	profile  *UserProfile
	extended *ExtendedProfile
	xp       *XP
	loaded   bool
}

// NewManager constructs a manager for one user.
func NewManager(logger *slog.Logger, repo RepositoryPort, meta AuthMeta) *Manager {
	return &Manager{logger: logger, repo: repo, meta: meta}
}

// EnsureLoaded performs the initial load exactly once.
func (m *Manager) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()
	if loaded {
		return nil
	}
	return m.Load(ctx)
}

// Load fetches profile, extended profile and XP in parallel, lazily creating
// the profile and XP rows when absent.
func (m *Manager) Load(ctx context.Context) error {
	if m.meta.UserID == "" {
		m.mu.Lock()
		m.profile, m.extended, m.xp = nil, nil, nil
		m.loaded = true
		m.mu.Unlock()
		return shared.ErrNotAuthenticated
	}

	if m.repo == nil {
		m.mu.Lock()
		m.applyFallbackLocked()
		m.loaded = true
		m.mu.Unlock()
		return nil
	}

	var (
		profileRow  UserProfile
		profileErr  error
		extendedRow ExtendedProfile
		extendedErr error
		xpRow       XP
		xpErr       error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profileRow, profileErr = m.repo.GetProfile(gctx, m.meta.UserID)
		return nil
	})
	g.Go(func() error {
		extendedRow, extendedErr = m.repo.GetExtended(gctx, m.meta.UserID)
		return nil
	})
	g.Go(func() error {
		xpRow, xpErr = m.repo.GetXP(gctx, m.meta.UserID)
		return nil
	})
	_ = g.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case profileErr == nil:
		m.profile = &profileRow
	default:
		synthesized := m.synthesizeProfile()
		if errors.Is(profileErr, shared.ErrNotFound) {
			if created, err := m.repo.InsertProfile(ctx, synthesized); err == nil {
				synthesized = created
			} else {
				m.logger.Warn("create profile", slog.Any("error", err))
			}
		} else {
			m.logger.Warn("fetch profile", slog.Any("error", profileErr))
		}
		m.profile = &synthesized
	}

	switch {
	case extendedErr == nil:
		m.extended = &extendedRow
	case errors.Is(extendedErr, shared.ErrNotFound):
		m.extended = nil
	default:
		m.logger.Warn("fetch extended profile", slog.Any("error", extendedErr))
		m.extended = nil
	}

	switch {
	case xpErr == nil:
		m.xp = &xpRow
	default:
		fallback := m.defaultXP()
		if errors.Is(xpErr, shared.ErrNotFound) {
			fallback.ID = uuid.NewString()
			if created, err := m.repo.InsertXP(ctx, fallback); err == nil {
				fallback = created
			} else {
				m.logger.Warn("create xp record", slog.Any("error", err))
				fallback.ID = inMemoryRecordID
			}
		} else {
			m.logger.Warn("fetch xp record", slog.Any("error", xpErr))
		}
		m.xp = &fallback
	}

	m.loaded = true
	return nil
}

// AwardXP adds points to the running total and optionally appends a badge.
// The in-memory ledger is always updated; persistence failures degrade to
// memory-only state rather than losing the award.
func (m *Manager) AwardXP(ctx context.Context, points int, badge string) (XP, error) {
	if m.meta.UserID == "" {
		return XP{}, shared.ErrNotAuthenticated
	}
	if err := m.EnsureLoaded(ctx); err != nil {
		return XP{}, err
	}

	m.mu.Lock()
	newPoints := m.xp.Points + points
	newBadges := m.xp.Badges
	if badge != "" {
		newBadges = append(append([]string(nil), m.xp.Badges...), badge)
	}
	persisted := m.repo != nil && m.xp.ID != inMemoryRecordID
	m.mu.Unlock()

	if persisted {
		saved, err := m.repo.SaveXP(ctx, m.meta.UserID, newPoints, newBadges)
		if err == nil {
			m.mu.Lock()
			m.xp = &saved
			m.mu.Unlock()
			return saved, nil
		}
		m.logger.Warn("save xp", slog.Any("error", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.xp.Points = newPoints
	m.xp.Badges = newBadges
	return *m.xp, nil
}

// UpdateProfile applies a partial update to the identity record.
func (m *Manager) UpdateProfile(ctx context.Context, changes ProfileChanges) (UserProfile, error) {
	if m.meta.UserID == "" {
		return UserProfile{}, shared.ErrNotAuthenticated
	}
	if err := m.EnsureLoaded(ctx); err != nil {
		return UserProfile{}, err
	}

	if m.repo == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		applyProfileChanges(m.profile, changes)
		return *m.profile, nil
	}

	updated, err := m.repo.UpdateProfile(ctx, m.meta.UserID, changes)
	if err != nil {
		return UserProfile{}, err
	}
	m.mu.Lock()
	m.profile = &updated
	m.mu.Unlock()
	return updated, nil
}

// NotificationPatch is a shallow partial update of notification preferences.
type NotificationPatch struct {
	EmailNotifications *bool `json:"email_notifications"`
	PushNotifications  *bool `json:"push_notifications"`
	SMSNotifications   *bool `json:"sms_notifications"`
	MarketingEmails    *bool `json:"marketing_emails"`
	GoalReminders      *bool `json:"goal_reminders"`
	LearningReminders  *bool `json:"learning_reminders"`
	WeeklySummary      *bool `json:"weekly_summary"`
}

// PrivacyPatch is a shallow partial update of privacy settings.
type PrivacyPatch struct {
	ProfileVisibility *string `json:"profile_visibility"`
	DataSharing       *bool   `json:"data_sharing"`
	AnalyticsTracking *bool   `json:"analytics_tracking"`
	ThirdPartySharing *bool   `json:"third_party_sharing"`
}

// UpdateNotificationPreferences shallow-merges the patch and upserts.
func (m *Manager) UpdateNotificationPreferences(ctx context.Context, patch NotificationPatch) (ExtendedProfile, error) {
	return m.updateExtended(ctx, func(e *ExtendedProfile) {
		prefs := NotificationPreferences{}
		if e.NotificationPreferences != nil {
			prefs = *e.NotificationPreferences
		}
		setBool(&prefs.EmailNotifications, patch.EmailNotifications)
		setBool(&prefs.PushNotifications, patch.PushNotifications)
		setBool(&prefs.SMSNotifications, patch.SMSNotifications)
		setBool(&prefs.MarketingEmails, patch.MarketingEmails)
		setBool(&prefs.GoalReminders, patch.GoalReminders)
		setBool(&prefs.LearningReminders, patch.LearningReminders)
		setBool(&prefs.WeeklySummary, patch.WeeklySummary)
		e.NotificationPreferences = &prefs
	})
}

// UpdatePrivacySettings shallow-merges the patch and upserts.
func (m *Manager) UpdatePrivacySettings(ctx context.Context, patch PrivacyPatch) (ExtendedProfile, error) {
	return m.updateExtended(ctx, func(e *ExtendedProfile) {
		settings := PrivacySettings{}
		if e.PrivacySettings != nil {
			settings = *e.PrivacySettings
		}
		if patch.ProfileVisibility != nil {
			settings.ProfileVisibility = *patch.ProfileVisibility
		}
		setBool(&settings.DataSharing, patch.DataSharing)
		setBool(&settings.AnalyticsTracking, patch.AnalyticsTracking)
		setBool(&settings.ThirdPartySharing, patch.ThirdPartySharing)
		e.PrivacySettings = &settings
	})
}

// UpdateTheme stores the theme preference.
func (m *Manager) UpdateTheme(ctx context.Context, theme string) (ExtendedProfile, error) {
	return m.updateExtended(ctx, func(e *ExtendedProfile) {
		e.Theme = theme
	})
}

func (m *Manager) updateExtended(ctx context.Context, mutate func(*ExtendedProfile)) (ExtendedProfile, error) {
	if m.meta.UserID == "" {
		return ExtendedProfile{}, shared.ErrNotAuthenticated
	}
	if err := m.EnsureLoaded(ctx); err != nil {
		return ExtendedProfile{}, err
	}

	m.mu.Lock()
	next := ExtendedProfile{ID: inMemoryRecordID, UserID: m.meta.UserID}
	if m.extended != nil {
		next = *m.extended
	}
	mutate(&next)
	repo := m.repo
	m.mu.Unlock()

	if repo == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.extended = &next
		return next, nil
	}

	if next.ID == inMemoryRecordID || next.ID == "" {
		next.ID = uuid.NewString()
	}
	saved, err := repo.UpsertExtended(ctx, next)
	if err != nil {
		return ExtendedProfile{}, err
	}
	m.mu.Lock()
	m.extended = &saved
	m.mu.Unlock()
	return saved, nil
}

// Profile returns the current profile, or nil before load.
func (m *Manager) Profile() *UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// Extended returns the current preferences record, or nil when absent.
func (m *Manager) Extended() *ExtendedProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.extended == nil {
		return nil
	}
	e := *m.extended
	return &e
}

// Ledger returns the current XP state, or nil before load.
func (m *Manager) Ledger() *XP {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.xp == nil {
		return nil
	}
	xp := *m.xp
	xp.Badges = append([]string(nil), m.xp.Badges...)
	return &xp
}

// FullName resolves the best display of the user's full name.
func (m *Manager) FullName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile != nil && m.profile.FirstName != "" {
		return strings.TrimSpace(m.profile.FirstName + " " + m.profile.LastName)
	}
	if m.meta.FullName != "" {
		return m.meta.FullName
	}
	if at := strings.Index(m.meta.Email, "@"); at > 0 {
		return m.meta.Email[:at]
	}
	return "User"
}

// DisplayName resolves the short name shown in the header.
func (m *Manager) DisplayName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile != nil && m.profile.FirstName != "" {
		return m.profile.FirstName
	}
	if m.meta.FullName != "" {
		first, _ := SplitName(m.meta.FullName)
		return first
	}
	if at := strings.Index(m.meta.Email, "@"); at > 0 {
		return m.meta.Email[:at]
	}
	return "User"
}

// Initials derives two-letter initials from the full name.
func (m *Manager) Initials() string {
	full := m.FullName()
	parts := strings.Fields(full)
	if len(parts) >= 2 {
		return strings.ToUpper(parts[0][:1] + parts[1][:1])
	}
	if len(full) >= 2 {
		return strings.ToUpper(full[:2])
	}
	return strings.ToUpper(full)
}

func (m *Manager) synthesizeProfile() UserProfile {
	first, last := SplitName(m.meta.FullName)
	return UserProfile{
		ID:        m.meta.UserID,
		Email:     m.meta.Email,
		FirstName: first,
		LastName:  last,
		IsActive:  true,
	}
}

func (m *Manager) defaultXP() XP {
	return XP{
		ID:     inMemoryRecordID,
		UserID: m.meta.UserID,
		Points: DefaultXPPoints,
		Badges: []string{DefaultXPBadge},
	}
}

func (m *Manager) applyFallbackLocked() {
	synthesized := m.synthesizeProfile()
	fallback := m.defaultXP()
	m.profile = &synthesized
	m.xp = &fallback
}

func applyProfileChanges(p *UserProfile, changes ProfileChanges) {
	if changes.FirstName != nil {
		p.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		p.LastName = *changes.LastName
	}
	if changes.PhoneNumber != nil {
		p.PhoneNumber = *changes.PhoneNumber
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
