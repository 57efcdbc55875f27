package chat

import (
	"strings"

	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/models"
)

// Send describes a prompt accepted by BeginSend
type Send struct {
	// StreamID identifies the reply this request will produce. Fragments
	// tagged with any other id are ignored.
	StreamID uint64
	Request  models.ChatRequest
}

// State is the whole client view model. It performs no I/O and is meant to
// be mutated from a single goroutine.
type State struct {
	Projects        []models.Project
	ActiveID        string
	Transcript      *Transcript
	Streaming       bool
	Err             string
	LoadingProjects bool
	LoadingMessages bool

	// SystemPrompt, when set, is sent as a leading system message
	SystemPrompt string

	streamID uint64
}

// NewState creates an empty state
func NewState() *State {
	return &State{Transcript: NewTranscript(nil)}
}

// Active returns the active project, or nil when none is selected
func (s *State) Active() *models.Project {
	for i := range s.Projects {
		if s.Projects[i].ID == s.ActiveID {
			return &s.Projects[i]
		}
	}
	return nil
}

// StreamID returns the id of the current or most recent stream
func (s *State) StreamID() uint64 {
	return s.streamID
}

// SetError stores the banner text for err. A nil error clears the banner.
func (s *State) SetError(err error) {
	s.Err = apierrors.UserMessage(err)
}

// ClearError hides the banner
func (s *State) ClearError() {
	s.Err = ""
}

// BeginLoadProjects marks a project reload as started
func (s *State) BeginLoadProjects() {
	s.Err = ""
	s.LoadingProjects = true
}

// SetProjects replaces the project list. When no project is active the
// first one is selected; the return value reports whether that happened so
// the caller can load its history.
func (s *State) SetProjects(projects []models.Project) bool {
	s.LoadingProjects = false
	s.Projects = append([]models.Project(nil), projects...)

	if s.ActiveID != "" && s.Active() != nil {
		return false
	}
	if len(s.Projects) == 0 {
		s.ActiveID = ""
		return false
	}
	s.ActiveID = s.Projects[0].ID
	s.Transcript.Reset(nil)
	return true
}

// FailLoadProjects records a failed reload
func (s *State) FailLoadProjects(err error) {
	s.LoadingProjects = false
	s.SetError(err)
}

// BeginLoadMessages marks a history load as started
func (s *State) BeginLoadMessages() {
	s.Err = ""
	s.LoadingMessages = true
}

// SetMessages installs the history of projectID. Results for a project that
// is no longer active are dropped.
func (s *State) SetMessages(projectID string, messages []models.Message) bool {
	if projectID != s.ActiveID {
		return false
	}
	s.LoadingMessages = false
	if s.Streaming {
		return false
	}
	s.Transcript.Reset(messages)
	return true
}

// FailLoadMessages records a failed history load for projectID
func (s *State) FailLoadMessages(projectID string, err error) {
	if projectID != s.ActiveID {
		return
	}
	s.LoadingMessages = false
	s.SetError(err)
}

// AddProject prepends a newly created project and makes it active
func (s *State) AddProject(p models.Project) {
	s.Err = ""
	s.cancelStream()
	s.Projects = append([]models.Project{p}, s.Projects...)
	s.ActiveID = p.ID
	s.Transcript.Reset(nil)
}

// Select makes id the active project. A reply still streaming for the
// previous project is abandoned. It returns false when id is unknown or
// already active.
func (s *State) Select(id string) bool {
	if id == s.ActiveID {
		return false
	}
	found := false
	for _, p := range s.Projects {
		if p.ID == id {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	s.cancelStream()
	s.ActiveID = id
	s.Transcript.Reset(nil)
	return true
}

// BeginSend validates prompt and, when sending is allowed, appends the user
// message and returns the request to issue. Sending is refused for blank
// prompts, when no project is active and while a reply is streaming.
func (s *State) BeginSend(prompt string) (Send, bool) {
	text := strings.TrimSpace(prompt)
	active := s.Active()
	if text == "" || active == nil || s.Streaming {
		return Send{}, false
	}

	s.Transcript.Add(models.Message{Role: models.RoleUser, Content: text})
	s.Streaming = true
	s.streamID++

	history := s.Transcript.Messages()
	msgs := make([]models.Message, 0, len(history)+1)
	if s.SystemPrompt != "" {
		msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: s.SystemPrompt})
	}
	msgs = append(msgs, history...)

	return Send{
		StreamID: s.streamID,
		Request: models.ChatRequest{
			ProjectID:   active.ID,
			ProjectName: active.Name,
			Messages:    msgs,
		},
	}, true
}

// OpenReply creates the assistant placeholder once the backend has accepted
// the stream.
func (s *State) OpenReply(streamID uint64) bool {
	if !s.current(streamID) {
		return false
	}
	s.Transcript.Open()
	return true
}

// ApplyFragment folds one fragment into the open reply
func (s *State) ApplyFragment(streamID uint64, fragment string) bool {
	if !s.current(streamID) {
		return false
	}
	s.Transcript.Open()
	s.Transcript.Append(fragment)
	return true
}

// FinishStream closes the reply. Text received before a failure is kept and
// err, if any, becomes the banner.
func (s *State) FinishStream(streamID uint64, err error) bool {
	if !s.current(streamID) {
		return false
	}
	s.Transcript.Close()
	s.Streaming = false
	if err != nil {
		s.SetError(err)
	}
	return true
}

// Reset clears everything, used when the session ends
func (s *State) Reset() {
	s.cancelStream()
	s.Projects = nil
	s.ActiveID = ""
	s.Transcript.Reset(nil)
	s.LoadingProjects = false
	s.LoadingMessages = false
}

func (s *State) current(streamID uint64) bool {
	return s.Streaming && streamID == s.streamID
}

func (s *State) cancelStream() {
	if s.Streaming {
		s.Streaming = false
		s.streamID++
	}
	s.LoadingMessages = false
}
