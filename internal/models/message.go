package models

import "strings"

// Role identifies the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the backend accepts
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a project conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Project is a named container for a conversation, owned by a user
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"user_id"`
}

// ChatRequest is the body of the streaming endpoint
type ChatRequest struct {
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name,omitempty"`
	Messages    []Message `json:"messages"`
}

// CreateProjectRequest is the body of POST /projects
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// ErrorFragmentPrefix marks a fragment the backend emits when the language
// model fails mid-reply.
const ErrorFragmentPrefix = "[error] "

// IsErrorFragment reports whether text is a backend failure notice
func IsErrorFragment(text string) bool {
	return strings.HasPrefix(text, ErrorFragmentPrefix)
}
