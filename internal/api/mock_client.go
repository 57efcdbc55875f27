package api

import (
	"context"
	"sync"

	"github.com/diogo/researchcopilot/internal/models"
	"github.com/diogo/researchcopilot/internal/stream"
)

// BackendClient is the surface of Client used by the TUI and commands
type BackendClient interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, name string) (*models.Project, error)
	ListMessages(ctx context.Context, projectID string) ([]models.Message, error)
	StreamChat(ctx context.Context, req models.ChatRequest, sink stream.Sink) (stream.Result, error)
	Health(ctx context.Context) error
	Session() *Session
	BaseURL() string
	Close()
}

// Ensure Client implements BackendClient
var _ BackendClient = (*Client)(nil)

// MockClient is a BackendClient with canned results for testing
type MockClient struct {
	mu sync.Mutex

	// Mock return values
	Projects      []models.Project
	ProjectsErr   error
	Created       *models.Project
	CreateErr     error
	Messages      map[string][]models.Message
	MessagesErr   error
	Fragments     []string
	StreamErr     error
	HealthErr     error
	SessionVal    *Session
	BaseURLVal    string
	BeforeStream  func(ctx context.Context)
	StreamBlocked chan struct{}

	// Call recorders
	CreatedNames []string
	LoadedIDs    []string
	Requests     []models.ChatRequest
	CloseCalled  bool
}

// Ensure MockClient implements BackendClient
var _ BackendClient = (*MockClient)(nil)

func (m *MockClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProjectsErr != nil {
		return nil, m.ProjectsErr
	}
	return append([]models.Project(nil), m.Projects...), nil
}

func (m *MockClient) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedNames = append(m.CreatedNames, name)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Created != nil {
		return m.Created, nil
	}
	return &models.Project{ID: "new-" + name, Name: name}, nil
}

func (m *MockClient) ListMessages(ctx context.Context, projectID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadedIDs = append(m.LoadedIDs, projectID)
	if m.MessagesErr != nil {
		return nil, m.MessagesErr
	}
	return append([]models.Message(nil), m.Messages[projectID]...), nil
}

func (m *MockClient) StreamChat(ctx context.Context, req models.ChatRequest, sink stream.Sink) (stream.Result, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fragments := append([]string(nil), m.Fragments...)
	streamErr := m.StreamErr
	before := m.BeforeStream
	blocked := m.StreamBlocked
	m.mu.Unlock()

	if before != nil {
		before(ctx)
	}

	var res stream.Result
	for _, frag := range fragments {
		res.Fragments++
		if sink != nil {
			sink(stream.Event{Seq: res.Fragments, Text: frag})
		}
	}

	if blocked != nil {
		select {
		case <-blocked:
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
	return res, streamErr
}

func (m *MockClient) Health(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockClient) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SessionVal == nil {
		m.SessionVal = NewSession("mock-token")
	}
	return m.SessionVal
}

func (m *MockClient) BaseURL() string {
	if m.BaseURLVal == "" {
		return "http://mock.backend"
	}
	return m.BaseURLVal
}

func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// StreamRequests returns the chat requests received so far
func (m *MockClient) StreamRequests() []models.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChatRequest(nil), m.Requests...)
}
