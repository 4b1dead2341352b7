package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/database/testutil"
	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/pkg/mail"
)

// testEnv wires every service against one in-memory database.
type testEnv struct {
	db          *gorm.DB
	checker     *access.Checker
	users       *UserService
	roadmaps    *RoadmapService
	features    *FeatureService
	personas    *PersonaService
	members     *MemberService
	invitations *InvitationService
	shares      *ShareService
	exports     *ExportService
	mailer      *recordingMailer
	now         time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	checker, err := access.NewChecker(db)
	require.NoError(t, err)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	mailer := &recordingMailer{}

	users, err := NewUserService(db, nil, WithUserClock(clock))
	require.NoError(t, err)
	roadmaps, err := NewRoadmapService(db, checker, nil, WithRoadmapClock(clock))
	require.NoError(t, err)
	features, err := NewFeatureService(db, checker, nil, WithFeatureClock(clock))
	require.NoError(t, err)
	personas, err := NewPersonaService(db, nil)
	require.NoError(t, err)
	members, err := NewMemberService(db, checker, nil)
	require.NoError(t, err)
	invitations, err := NewInvitationService(db, checker, nil, mailer,
		WithInvitationClock(clock), WithInvitationBaseURL("https://compass.test"))
	require.NoError(t, err)
	shares, err := NewShareService(db, checker, nil,
		WithShareClock(clock), WithShareBaseURL("https://compass.test"))
	require.NoError(t, err)
	exports, err := NewExportService(db, checker, features, nil, WithExportClock(clock))
	require.NoError(t, err)

	return &testEnv{
		db:          db,
		checker:     checker,
		users:       users,
		roadmaps:    roadmaps,
		features:    features,
		personas:    personas,
		members:     members,
		invitations: invitations,
		shares:      shares,
		exports:     exports,
		mailer:      mailer,
		now:         now,
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), RegisterInput{
		Email:       email,
		Password:    "correct-horse-battery",
		DisplayName: email,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createRoadmap(t *testing.T, ownerID, name string, public bool) *models.Roadmap {
	t.Helper()
	roadmap, err := e.roadmaps.Create(context.Background(), ownerID, CreateRoadmapInput{
		Name:     name,
		IsPublic: public,
	})
	require.NoError(t, err)
	return roadmap
}

func (e *testEnv) addMember(t *testing.T, roadmapID, userID, role string) {
	t.Helper()
	member := &models.ProjectMember{
		RoadmapID: roadmapID,
		UserID:    userID,
		Role:      role,
		Status:    models.MemberActive,
	}
	require.NoError(t, e.db.Create(member).Error)
}

// recordingMailer captures outbound messages for assertions.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
