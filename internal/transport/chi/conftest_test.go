package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/grid"
	"github.com/cybernet-io/leadgrid/internal/queue"
	leaduc "github.com/cybernet-io/leadgrid/internal/usecase/lead"
	notificationuc "github.com/cybernet-io/leadgrid/internal/usecase/notification"
)

// --- Mocks ---

type mockLeadRepo struct {
	lastDescriptors []grid.Descriptor
	listResult      []domain.Lead
	getResult       domain.Lead
	listErr         error
	getErr          error
}

func (m *mockLeadRepo) List(
	_ context.Context, _ int64, descriptors []grid.Descriptor, _, _ int,
) ([]domain.Lead, error) {
	m.lastDescriptors = descriptors
	return m.listResult, m.listErr
}

func (m *mockLeadRepo) Get(_ context.Context, _ int64) (domain.Lead, error) {
	return m.getResult, m.getErr
}

type mockNotificationRepo struct {
	created    *domain.Notification
	listResult []domain.Notification
	listErr    error
}

func (m *mockNotificationRepo) Create(_ context.Context, n domain.Notification) error {
	m.created = &n
	return nil
}

func (m *mockNotificationRepo) UpdateOutcome(_ context.Context, _ domain.Notification) error {
	return nil
}

func (m *mockNotificationRepo) Get(_ context.Context, _ uuid.UUID) (domain.Notification, error) {
	return domain.Notification{}, domain.ErrNotFound
}

func (m *mockNotificationRepo) ListByLead(
	_ context.Context, _ int64, _ domain.Channel,
) ([]domain.Notification, error) {
	return m.listResult, m.listErr
}

type mockProvider struct {
	providerID string
	err        error
}

func (m *mockProvider) Channel() domain.Channel { return domain.ChannelSMS }
func (m *mockProvider) Sender() string          { return "+15550000001" }

func (m *mockProvider) Send(_ context.Context, _, _ string) (string, error) {
	return m.providerID, m.err
}

type mockQueue struct{}

func (m *mockQueue) Enqueue(_ context.Context, _ queue.Job) error { return nil }

type testEnv struct {
	leadRepo  *mockLeadRepo
	notifRepo *mockNotificationRepo
	provider  *mockProvider
	router    http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		leadRepo:  &mockLeadRepo{},
		notifRepo: &mockNotificationRepo{},
		provider:  &mockProvider{providerID: "SM1"},
	}

	leads := leaduc.New(env.leadRepo, 20, 100)
	notifications := notificationuc.New(
		env.leadRepo, env.notifRepo,
		[]notificationuc.Provider{env.provider}, &mockQueue{}, zap.NewNop())

	health := map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}

	server := NewServer(leads, notifications, health)
	r := chi.NewRouter()
	server.Routes(r)
	env.router = r
	return env
}
