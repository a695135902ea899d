package agent

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in persona names
const (
	PersonaYOLO     = "degen_yolo"
	PersonaTactical = "degen_tactical"
	PersonaQA       = "qa_agent"
)

// Template placeholders substituted on every turn
const (
	PlaceholderHistory  = "{chat_history}"
	PlaceholderUsername = "{username}"
)

//go:embed personas.yaml
var personasYAML []byte

// Persona is a fixed prompt template plus the tools the bot using it may
// call. Personas are immutable once loaded.
type Persona struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Tools       []string `yaml:"tools"`
	Template    string   `yaml:"template"`
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// Render substitutes the history and username placeholders
func (p Persona) Render(history, username string) string {
	return strings.NewReplacer(
		PlaceholderHistory, history,
		PlaceholderUsername, username,
	).Replace(p.Template)
}

// LoadPersonas parses persona definitions from YAML
func LoadPersonas(data []byte) (map[string]Persona, error) {
	var file personaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}

	personas := make(map[string]Persona, len(file.Personas))
	for _, p := range file.Personas {
		if p.Name == "" {
			return nil, fmt.Errorf("persona without a name")
		}
		if !strings.Contains(p.Template, PlaceholderHistory) {
			return nil, fmt.Errorf("persona %s: template has no %s placeholder", p.Name, PlaceholderHistory)
		}
		if _, dup := personas[p.Name]; dup {
			return nil, fmt.Errorf("persona %s defined twice", p.Name)
		}
		personas[p.Name] = p
	}
	return personas, nil
}

// BuiltinPersona returns one of the embedded personas
func BuiltinPersona(name string) (Persona, error) {
	personas, err := LoadPersonas(personasYAML)
	if err != nil {
		return Persona{}, err
	}
	p, ok := personas[name]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona %q", name)
	}
	return p, nil
}

// SelectTools returns the tools named by the persona, in persona order
func (p Persona) SelectTools(available []*Tool) ([]*Tool, error) {
	byName := make(map[string]*Tool, len(available))
	for _, t := range available {
		byName[t.Name()] = t
	}

	selected := make([]*Tool, 0, len(p.Tools))
	for _, name := range p.Tools {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("persona %s needs tool %s which is not available", p.Name, name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}
