package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/queue"
)

// --- Mocks ---

type mockLeads struct {
	lead domain.Lead
	err  error
}

func (m *mockLeads) Get(_ context.Context, _ int64) (domain.Lead, error) {
	return m.lead, m.err
}

type mockRepo struct {
	created    *domain.Notification
	updated    *domain.Notification
	getResult  domain.Notification
	listResult []domain.Notification

	createErr error
	getErr    error
	listErr   error
	updateErr error
}

func (m *mockRepo) Create(_ context.Context, n domain.Notification) error {
	m.created = &n
	return m.createErr
}

func (m *mockRepo) UpdateOutcome(_ context.Context, n domain.Notification) error {
	m.updated = &n
	return m.updateErr
}

func (m *mockRepo) Get(_ context.Context, _ uuid.UUID) (domain.Notification, error) {
	return m.getResult, m.getErr
}

func (m *mockRepo) ListByLead(
	_ context.Context, _ int64, _ domain.Channel,
) ([]domain.Notification, error) {
	return m.listResult, m.listErr
}

type mockProvider struct {
	channel domain.Channel
	sender  string

	lastRecipient string
	lastBody      string
	calls         int

	providerID string
	err        error
}

func (m *mockProvider) Channel() domain.Channel { return m.channel }
func (m *mockProvider) Sender() string          { return m.sender }

func (m *mockProvider) Send(_ context.Context, recipient, body string) (string, error) {
	m.calls++
	m.lastRecipient = recipient
	m.lastBody = body
	return m.providerID, m.err
}

type mockQueue struct {
	jobs []queue.Job
	err  error
}

func (m *mockQueue) Enqueue(_ context.Context, job queue.Job) error {
	m.jobs = append(m.jobs, job)
	return m.err
}

func phoneLead() domain.Lead {
	phone := "+15550000002"
	email := "lead@example.com"
	return domain.Lead{ID: 42, OwnerID: 7, Phone: &phone, Email: &email}
}

func newTestService(
	leads *mockLeads, repo *mockRepo, provider *mockProvider, retry *mockQueue,
) *Service {
	return New(leads, repo, []Provider{provider}, retry, zap.NewNop())
}

// --- Tests ---

func TestSendSuccess(t *testing.T) {
	leads := &mockLeads{lead: phoneLead()}
	repo := &mockRepo{}
	provider := &mockProvider{
		channel: domain.ChannelSMS, sender: "+15550000001", providerID: "SM1",
	}
	retry := &mockQueue{}
	svc := newTestService(leads, repo, provider, retry)

	n, err := svc.Send(context.Background(), 42, domain.ChannelSMS, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.Status != domain.StatusSent {
		t.Fatalf("expected status sent, got %s", n.Status)
	}
	if n.ProviderID == nil || *n.ProviderID != "SM1" {
		t.Fatalf("expected provider id SM1, got %v", n.ProviderID)
	}
	if provider.lastRecipient != "+15550000002" {
		t.Fatalf("expected phone recipient, got %s", provider.lastRecipient)
	}
	if repo.created == nil || repo.created.ID != n.ID {
		t.Fatal("expected notification persisted")
	}
	if len(retry.jobs) != 0 {
		t.Fatalf("expected no retry jobs, got %d", len(retry.jobs))
	}
}

func TestSendProviderFailureQueuesRetry(t *testing.T) {
	leads := &mockLeads{lead: phoneLead()}
	repo := &mockRepo{}
	provider := &mockProvider{
		channel: domain.ChannelSMS, sender: "+15550000001",
		err: &domain.ProviderError{Code: 21211, Message: "invalid 'To' number"},
	}
	retry := &mockQueue{}
	svc := newTestService(leads, repo, provider, retry)

	n, err := svc.Send(context.Background(), 42, domain.ChannelSMS, "hello")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
	if n.Status != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", n.Status)
	}
	if n.ErrorCode == nil || *n.ErrorCode != 21211 {
		t.Fatalf("expected error code 21211, got %v", n.ErrorCode)
	}
	if repo.created == nil || repo.created.Status != domain.StatusFailed {
		t.Fatal("expected failed notification persisted")
	}
	if len(retry.jobs) != 1 || retry.jobs[0].NotificationID != n.ID {
		t.Fatalf("expected one retry job for %s, got %+v", n.ID, retry.jobs)
	}
}

func TestSendEmailUsesEmailAddress(t *testing.T) {
	leads := &mockLeads{lead: phoneLead()}
	repo := &mockRepo{}
	provider := &mockProvider{
		channel: domain.ChannelEmail, sender: "crm@example.com", providerID: "em-7",
	}
	svc := newTestService(leads, repo, provider, &mockQueue{})

	n, err := svc.Send(context.Background(), 42, domain.ChannelEmail, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if provider.lastRecipient != "lead@example.com" {
		t.Fatalf("expected email recipient, got %s", provider.lastRecipient)
	}
	if n.Sender != "crm@example.com" {
		t.Fatalf("expected configured sender, got %s", n.Sender)
	}
}

func TestSendMissingRecipient(t *testing.T) {
	lead := phoneLead()
	lead.Phone = nil
	leads := &mockLeads{lead: lead}
	provider := &mockProvider{channel: domain.ChannelSMS, sender: "+15550000001"}
	svc := newTestService(leads, &mockRepo{}, provider, &mockQueue{})

	_, err := svc.Send(context.Background(), 42, domain.ChannelSMS, "hello")
	if !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatal("provider must not be called without a recipient")
	}
}

func TestSendUnknownChannel(t *testing.T) {
	provider := &mockProvider{channel: domain.ChannelSMS, sender: "+15550000001"}
	svc := newTestService(&mockLeads{lead: phoneLead()}, &mockRepo{}, provider, &mockQueue{})

	_, err := svc.Send(context.Background(), 42, domain.Channel("fax"), "hello")
	if !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestSendUnknownLead(t *testing.T) {
	leads := &mockLeads{err: domain.ErrNotFound}
	provider := &mockProvider{channel: domain.ChannelSMS, sender: "+15550000001"}
	svc := newTestService(leads, &mockRepo{}, provider, &mockQueue{})

	_, err := svc.Send(context.Background(), 99, domain.ChannelSMS, "hello")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedeliverSuccess(t *testing.T) {
	code := 21211
	msg := "invalid 'To' number"
	failed := domain.Notification{
		ID:        uuid.New(),
		LeadID:    42,
		Channel:   domain.ChannelSMS,
		Recipient: "+15550000002",
		Body:      "hello",
		Status:    domain.StatusFailed,
		ErrorCode: &code, ErrorMessage: &msg,
		Attempts: 1,
	}

	repo := &mockRepo{getResult: failed}
	provider := &mockProvider{
		channel: domain.ChannelSMS, sender: "+15550000001", providerID: "SM2",
	}
	svc := newTestService(&mockLeads{}, repo, provider, &mockQueue{})

	n, err := svc.Redeliver(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if n.Status != domain.StatusSent {
		t.Fatalf("expected status sent, got %s", n.Status)
	}
	if n.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", n.Attempts)
	}
	if n.ErrorCode != nil || n.ErrorMessage != nil {
		t.Fatal("expected error fields cleared on success")
	}
	if repo.updated == nil || repo.updated.Status != domain.StatusSent {
		t.Fatal("expected outcome persisted")
	}
}

func TestRedeliverAlreadySent(t *testing.T) {
	sent := domain.Notification{ID: uuid.New(), Status: domain.StatusSent}
	repo := &mockRepo{getResult: sent}
	provider := &mockProvider{channel: domain.ChannelSMS, sender: "+15550000001"}
	svc := newTestService(&mockLeads{}, repo, provider, &mockQueue{})

	if _, err := svc.Redeliver(context.Background(), sent.ID); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	if provider.calls != 0 {
		t.Fatal("provider must not be called for an already sent notification")
	}
}

func TestHistory(t *testing.T) {
	repo := &mockRepo{listResult: []domain.Notification{{LeadID: 42}}}
	provider := &mockProvider{channel: domain.ChannelSMS, sender: "+15550000001"}
	svc := newTestService(&mockLeads{lead: phoneLead()}, repo, provider, &mockQueue{})

	ns, err := svc.History(context.Background(), 42, domain.ChannelSMS)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(ns) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(ns))
	}
}

func TestHistoryUnknownLead(t *testing.T) {
	leads := &mockLeads{err: domain.ErrNotFound}
	provider := &mockProvider{channel: domain.ChannelSMS, sender: "+15550000001"}
	svc := newTestService(leads, &mockRepo{}, provider, &mockQueue{})

	_, err := svc.History(context.Background(), 99, domain.ChannelSMS)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
