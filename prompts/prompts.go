package prompts

import (
	"bytes"
	"embed"
	"errors"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// PersonaData fills the portfolio persona template.
type PersonaData struct {
	OwnerName  string
	OwnerEmail string
}

// RenderPersonaPrompt renders the system instruction every conversation starts with.
func RenderPersonaPrompt(data PersonaData) (string, error) {
	if strings.TrimSpace(data.OwnerName) == "" {
		return "", errors.New("owner name is required for the persona prompt")
	}

	templateContent, err := templatesFS.ReadFile("templates/portfolio_persona_system.md")
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("portfolio_persona_system").Parse(string(templateContent))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

// SystemPrompt returns override when set, otherwise the rendered persona prompt.
func SystemPrompt(override string, data PersonaData) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	return RenderPersonaPrompt(data)
}
