package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/diogo/researchcopilot/internal/models"
)

// DefaultPersonaName is the persona that sends no system prompt
const DefaultPersonaName = "default"

// Persona is a named system prompt sent ahead of the conversation
type Persona struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// SystemMessage returns the leading system message for p, if any
func (p *Persona) SystemMessage() (models.Message, bool) {
	if p == nil || strings.TrimSpace(p.SystemPrompt) == "" {
		return models.Message{}, false
	}
	return models.Message{Role: models.RoleSystem, Content: p.SystemPrompt}, true
}

// PersonaConfig stores all personas
type PersonaConfig struct {
	Personas       []Persona `json:"personas"`
	DefaultPersona string    `json:"default_persona,omitempty"`
}

// Find returns the persona called name
func (c *PersonaConfig) Find(name string) (*Persona, error) {
	for i := range c.Personas {
		if c.Personas[i].Name == name {
			p := c.Personas[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("persona '%s' not found", name)
}

// DefaultPersonas returns pre-configured personas
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:        DefaultPersonaName,
			Description: "Sin prompt de sistema",
		},
		{
			Name:        "investigador",
			Description: "Asistente de investigación académica",
			SystemPrompt: `Sos un asistente de investigación académica. Al responder:
- Distinguí hechos establecidos de hipótesis
- Citá autores y años cuando los conozcas, y decilo cuando no
- Proponé líneas de búsqueda y palabras clave concretas
- Respondé en el idioma de la pregunta`,
		},
		{
			Name:        "revisor",
			Description: "Revisor crítico de borradores",
			SystemPrompt: `Sos un revisor exigente de textos académicos. Para cada borrador:
- Señalá afirmaciones sin respaldo
- Marcá problemas de estructura y de argumentación
- Sugerí reescrituras breves para los párrafos débiles`,
		},
		{
			Name:        "resumen",
			Description: "Resúmenes breves y estructurados",
			SystemPrompt: `Resumí el material en viñetas cortas, con un máximo de cinco puntos,
seguido de una línea con la idea central.`,
		},
	}
}

// GetPersonasPath returns the path to the personas file
func GetPersonasPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personas.json"), nil
}

// LoadPersonas loads the persona configuration
func LoadPersonas() (*PersonaConfig, error) {
	path, err := GetPersonasPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PersonaConfig{
				Personas:       DefaultPersonas(),
				DefaultPersona: DefaultPersonaName,
			}, nil
		}
		return nil, fmt.Errorf("failed to read personas: %w", err)
	}

	var cfg PersonaConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}

	// Keep user customizations on top of the built-ins
	cfg.Personas = mergePersonas(DefaultPersonas(), cfg.Personas)
	return &cfg, nil
}

// SavePersonas saves the persona configuration
func SavePersonas(cfg *PersonaConfig) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal personas: %w", err)
	}

	return os.WriteFile(filepath.Join(configDir, "personas.json"), data, 0o600)
}

// GetPersona returns a persona by name
func GetPersona(name string) (*Persona, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	return cfg.Find(name)
}

// AddPersona adds a new persona
func AddPersona(persona Persona) error {
	if err := ValidatePersona(persona); err != nil {
		return err
	}

	cfg, err := LoadPersonas()
	if err != nil {
		return err
	}
	if _, err := cfg.Find(persona.Name); err == nil {
		return fmt.Errorf("persona '%s' already exists", persona.Name)
	}

	cfg.Personas = append(cfg.Personas, persona)
	return SavePersonas(cfg)
}

// DeletePersona removes a persona by name
func DeletePersona(name string) error {
	if name == DefaultPersonaName {
		return fmt.Errorf("cannot delete the default persona")
	}

	cfg, err := LoadPersonas()
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(cfg.Personas, func(p Persona) bool { return p.Name == name })
	if idx < 0 {
		return fmt.Errorf("persona '%s' not found", name)
	}
	cfg.Personas = slices.Delete(cfg.Personas, idx, idx+1)

	if cfg.DefaultPersona == name {
		cfg.DefaultPersona = DefaultPersonaName
	}
	return SavePersonas(cfg)
}

// SetDefaultPersona sets the persona used when none is requested
func SetDefaultPersona(name string) error {
	cfg, err := LoadPersonas()
	if err != nil {
		return err
	}
	if _, err := cfg.Find(name); err != nil {
		return err
	}
	cfg.DefaultPersona = name
	return SavePersonas(cfg)
}

// ResolvePersona returns the persona called name, or the configured default
// when name is empty
func ResolvePersona(name string) (*Persona, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cfg.DefaultPersona
	}
	if name == "" {
		name = DefaultPersonaName
	}
	return cfg.Find(name)
}

func mergePersonas(defaults, custom []Persona) []Persona {
	result := slices.Clone(defaults)
	for _, cp := range custom {
		if i := slices.IndexFunc(result, func(p Persona) bool { return p.Name == cp.Name }); i >= 0 {
			result[i] = cp
		} else {
			result = append(result, cp)
		}
	}
	return result
}

// Validation limits
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxPromptLength      = 32 * 1024
)

// ValidatePersona validates a persona's fields
func ValidatePersona(p Persona) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("validation failed: name is required")
	case len(p.Name) > MaxNameLength:
		return fmt.Errorf("validation failed: name too long (max %d characters)", MaxNameLength)
	case !isValidPersonaName(p.Name):
		return fmt.Errorf("validation failed: name must contain only letters, digits, underscores and hyphens")
	case len(p.Description) > MaxDescriptionLength:
		return fmt.Errorf("validation failed: description too long (max %d characters)", MaxDescriptionLength)
	case len(p.SystemPrompt) > MaxPromptLength:
		return fmt.Errorf("validation failed: system prompt too long (max %d characters)", MaxPromptLength)
	}
	return nil
}

func isValidPersonaName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
