package tui

import "github.com/diogo/researchcopilot/internal/config"

// PersonaStore lists the personas offered by the in-chat picker.
// This abstraction enables testing with mock implementations.
type PersonaStore interface {
	List() ([]config.Persona, error)
}

// personaStoreAdapter wraps the config functions to implement PersonaStore
type personaStoreAdapter struct{}

// NewPersonaStore creates a PersonaStore backed by the config package
func NewPersonaStore() PersonaStore {
	return personaStoreAdapter{}
}

// List returns all personas
func (personaStoreAdapter) List() ([]config.Persona, error) {
	cfg, err := config.LoadPersonas()
	if err != nil {
		return nil, err
	}
	return cfg.Personas, nil
}
