// Package models contains data types and constants for the Research Copilot API.
package models

import "net/url"

// DefaultBackendURL is used when neither the config file nor the environment
// names a backend.
const DefaultBackendURL = "http://127.0.0.1:8000"

// Backend paths
const (
	PathProjects   = "/projects"
	PathChatStream = "/chat/stream"
	PathHealth     = "/healthz"
)

// Google identity endpoints
const (
	EndpointGoogleAuth  = "https://accounts.google.com/o/oauth2/v2/auth"
	EndpointGoogleToken = "https://oauth2.googleapis.com/token"
)

// GoogleScopes are requested during login. The backend only needs the email
// and subject claims of the ID token.
var GoogleScopes = []string{"openid", "email", "profile"}

// Content types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"
)

// ProjectMessagesPath returns the history path for a project id
func ProjectMessagesPath(projectID string) string {
	return PathProjects + "/" + url.PathEscape(projectID) + "/messages"
}

// DefaultHeaders returns the headers sent on every backend request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":          ContentTypeJSON,
		"Accept-Language": "es-AR,es;q=0.9,en;q=0.8",
		"User-Agent":      "researchcopilot-cli",
	}
}

// StreamHeaders returns the headers for the chat stream endpoint
func StreamHeaders() map[string]string {
	return map[string]string{
		"Content-Type": ContentTypeJSON,
		"Accept":       ContentTypeEventStream,
	}
}
