package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doughjo-app/doughjo/internal/shared"
)

type stubRepo struct {
	profile    UserProfile
	profileErr error

	insertedProfile *UserProfile
	insertErr       error

	extended    ExtendedProfile
	extendedErr error

	upserted *ExtendedProfile

	xp    XP
	xpErr error

	insertedXP  *XP
	insertXPErr error

	savedPoints int
	savedBadges []string
	saveXPErr   error
}

func (s *stubRepo) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	return s.profile, s.profileErr
}

func (s *stubRepo) InsertProfile(ctx context.Context, p UserProfile) (UserProfile, error) {
	if s.insertErr != nil {
		return UserProfile{}, s.insertErr
	}
	s.insertedProfile = &p
	return p, nil
}

func (s *stubRepo) UpdateProfile(ctx context.Context, userID string, changes ProfileChanges) (UserProfile, error) {
	p := s.profile
	applyProfileChanges(&p, changes)
	return p, nil
}

func (s *stubRepo) GetExtended(ctx context.Context, userID string) (ExtendedProfile, error) {
	return s.extended, s.extendedErr
}

func (s *stubRepo) UpsertExtended(ctx context.Context, e ExtendedProfile) (ExtendedProfile, error) {
	s.upserted = &e
	return e, nil
}

func (s *stubRepo) GetXP(ctx context.Context, userID string) (XP, error) {
	return s.xp, s.xpErr
}

func (s *stubRepo) InsertXP(ctx context.Context, xp XP) (XP, error) {
	if s.insertXPErr != nil {
		return XP{}, s.insertXPErr
	}
	s.insertedXP = &xp
	return xp, nil
}

func (s *stubRepo) SaveXP(ctx context.Context, userID string, points int, badges []string) (XP, error) {
	if s.saveXPErr != nil {
		return XP{}, s.saveXPErr
	}
	s.savedPoints = points
	s.savedBadges = badges
	return XP{ID: s.xp.ID, UserID: userID, Points: points, Badges: badges}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func meta() AuthMeta {
	return AuthMeta{UserID: "user-1", Email: "casey@example.com", FullName: "Casey Morgan"}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Casey Morgan")
	assert.Equal(t, "Casey", first)
	assert.Equal(t, "Morgan", last)

	first, last = SplitName("Casey van der Berg")
	assert.Equal(t, "Casey", first)
	assert.Equal(t, "van der Berg", last)

	first, last = SplitName("Casey")
	assert.Equal(t, "Casey", first)
	assert.Empty(t, last)

	first, last = SplitName("")
	assert.Equal(t, "User", first)
	assert.Empty(t, last)
}

func TestLoadLazilyCreatesProfileAndXP(t *testing.T) {
	repo := &stubRepo{
		profileErr:  shared.ErrNotFound,
		extendedErr: shared.ErrNotFound,
		xpErr:       shared.ErrNotFound,
	}
	m := NewManager(testLogger(), repo, meta())

	require.NoError(t, m.Load(context.Background()))

	require.NotNil(t, repo.insertedProfile)
	assert.Equal(t, "Casey", repo.insertedProfile.FirstName)
	assert.Equal(t, "Morgan", repo.insertedProfile.LastName)
	assert.Equal(t, "casey@example.com", repo.insertedProfile.Email)

	require.NotNil(t, repo.insertedXP)
	assert.Equal(t, DefaultXPPoints, repo.insertedXP.Points)
	assert.Equal(t, []string{DefaultXPBadge}, repo.insertedXP.Badges)
	assert.NotEqual(t, inMemoryRecordID, repo.insertedXP.ID)

	assert.Nil(t, m.Extended())
}

func TestLoadUsesExistingRows(t *testing.T) {
	repo := &stubRepo{
		profile:  UserProfile{ID: "user-1", FirstName: "Jamie", LastName: "Lee"},
		extended: ExtendedProfile{ID: "ext-1", UserID: "user-1", Theme: "dark"},
		xp:       XP{ID: "xp-1", UserID: "user-1", Points: 350, Badges: []string{"Welcome", "Saver"}},
	}
	m := NewManager(testLogger(), repo, meta())

	require.NoError(t, m.Load(context.Background()))

	assert.Nil(t, repo.insertedProfile)
	assert.Nil(t, repo.insertedXP)
	assert.Equal(t, "Jamie Lee", m.FullName())
	assert.Equal(t, "dark", m.Extended().Theme)
	assert.Equal(t, 350, m.Ledger().Points)
}

func TestLoadWithoutStoreSynthesizesInMemory(t *testing.T) {
	m := NewManager(testLogger(), nil, meta())

	require.NoError(t, m.Load(context.Background()))

	profile := m.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, "Casey", profile.FirstName)

	xp := m.Ledger()
	require.NotNil(t, xp)
	assert.Equal(t, inMemoryRecordID, xp.ID)
	assert.Equal(t, DefaultXPPoints, xp.Points)
}

func TestXPInsertFailureDegradesToMemory(t *testing.T) {
	repo := &stubRepo{
		profile:     UserProfile{ID: "user-1", FirstName: "Jamie"},
		extendedErr: shared.ErrNotFound,
		xpErr:       shared.ErrNotFound,
		insertXPErr: errors.New("down"),
	}
	m := NewManager(testLogger(), repo, meta())

	require.NoError(t, m.Load(context.Background()))

	xp := m.Ledger()
	require.NotNil(t, xp)
	assert.Equal(t, inMemoryRecordID, xp.ID)
	assert.Equal(t, DefaultXPPoints, xp.Points)
}

func TestAwardXPPersistsTotalAndBadge(t *testing.T) {
	repo := &stubRepo{
		profile: UserProfile{ID: "user-1", FirstName: "Jamie"},
		xp:      XP{ID: "xp-1", UserID: "user-1", Points: 100, Badges: []string{"Welcome"}},
	}
	m := NewManager(testLogger(), repo, meta())

	xp, err := m.AwardXP(context.Background(), 50, "Saver")
	require.NoError(t, err)

	assert.Equal(t, 150, xp.Points)
	assert.Equal(t, []string{"Welcome", "Saver"}, xp.Badges)
	assert.Equal(t, 150, repo.savedPoints)
}

func TestAwardXPWithoutBadgeKeepsBadges(t *testing.T) {
	repo := &stubRepo{
		profile: UserProfile{ID: "user-1"},
		xp:      XP{ID: "xp-1", UserID: "user-1", Points: 100, Badges: []string{"Welcome"}},
	}
	m := NewManager(testLogger(), repo, meta())

	xp, err := m.AwardXP(context.Background(), 25, "")
	require.NoError(t, err)

	assert.Equal(t, 125, xp.Points)
	assert.Equal(t, []string{"Welcome"}, xp.Badges)
}

func TestAwardXPRepeatedBadgeIsKept(t *testing.T) {
	m := NewManager(testLogger(), nil, meta())

	_, err := m.AwardXP(context.Background(), 10, "Streak")
	require.NoError(t, err)
	xp, err := m.AwardXP(context.Background(), 10, "Streak")
	require.NoError(t, err)

	assert.Equal(t, []string{"Welcome", "Streak", "Streak"}, xp.Badges)
}

func TestAwardXPSaveFailureKeepsMemoryState(t *testing.T) {
	repo := &stubRepo{
		profile:   UserProfile{ID: "user-1"},
		xp:        XP{ID: "xp-1", UserID: "user-1", Points: 100, Badges: []string{"Welcome"}},
		saveXPErr: errors.New("down"),
	}
	m := NewManager(testLogger(), repo, meta())

	xp, err := m.AwardXP(context.Background(), 40, "Saver")
	require.NoError(t, err)
	assert.Equal(t, 140, xp.Points)
	assert.Equal(t, []string{"Welcome", "Saver"}, xp.Badges)
}

func TestUpdateNotificationPreferencesMergesPatch(t *testing.T) {
	repo := &stubRepo{
		profile: UserProfile{ID: "user-1"},
		extended: ExtendedProfile{
			ID:     "ext-1",
			UserID: "user-1",
			NotificationPreferences: &NotificationPreferences{
				EmailNotifications: true,
				GoalReminders:      true,
			},
		},
		xp: XP{ID: "xp-1", UserID: "user-1"},
	}
	m := NewManager(testLogger(), repo, meta())

	off := false
	updated, err := m.UpdateNotificationPreferences(context.Background(), NotificationPatch{
		GoalReminders: &off,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.NotificationPreferences)
	assert.True(t, updated.NotificationPreferences.EmailNotifications)
	assert.False(t, updated.NotificationPreferences.GoalReminders)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, "ext-1", repo.upserted.ID)
}

func TestUpdateThemeCreatesExtendedRecordWhenAbsent(t *testing.T) {
	repo := &stubRepo{
		profile:     UserProfile{ID: "user-1"},
		extendedErr: shared.ErrNotFound,
		xp:          XP{ID: "xp-1", UserID: "user-1"},
	}
	m := NewManager(testLogger(), repo, meta())

	updated, err := m.UpdateTheme(context.Background(), "dark")
	require.NoError(t, err)

	assert.Equal(t, "dark", updated.Theme)
	require.NotNil(t, repo.upserted)
	assert.NotEqual(t, inMemoryRecordID, repo.upserted.ID)
	assert.NotEmpty(t, repo.upserted.ID)
}

func TestUpdateProfileWithoutStoreMutatesMemory(t *testing.T) {
	m := NewManager(testLogger(), nil, meta())
	first := "Jordan"

	updated, err := m.UpdateProfile(context.Background(), ProfileChanges{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Jordan", updated.FirstName)
	assert.Equal(t, "Jordan Morgan", m.FullName())
}

func TestNameHelpersFallBackToAuthMeta(t *testing.T) {
	m := NewManager(testLogger(), nil, AuthMeta{UserID: "user-1", Email: "pat@example.com"})
	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, "User", m.Profile().FirstName)
}

func TestInitials(t *testing.T) {
	repo := &stubRepo{
		profile: UserProfile{ID: "user-1", FirstName: "Casey", LastName: "Morgan"},
		xp:      XP{ID: "xp-1"},
	}
	m := NewManager(testLogger(), repo, meta())
	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, "CM", m.Initials())
}
