package composer

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// systemPromptTemplate lays out the role, the enabled capability sections
// and the menu of disabled capabilities the agent can switch on.
const systemPromptTemplate = `{{.Role}}
{{- if .Enabled}}

# Capabilities
{{- range .Enabled}}

## {{.Name}}
{{.Description}}
{{- if .Instructions}}

Instructions:
{{- range .Instructions}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Examples}}

Examples:
{{- range .Examples}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Context}}

{{.Context}}
{{- end}}
{{- end}}
{{- end}}
{{- if .Disabled}}

# Disabled capabilities
The following capabilities are currently disabled. Call {{.EnableTool}} with the capability name to make its tools available.
{{- range .Disabled}}
- {{.Name}}: {{.Description}}
{{- end}}
{{- end}}
`

var promptTmpl = template.Must(template.New("system_prompt").Parse(systemPromptTemplate))

type promptCapability struct {
	Name         string
	Description  string
	Instructions []string
	Examples     []string
	Context      string
}

type promptData struct {
	Role       string
	EnableTool string
	Enabled    []promptCapability
	Disabled   []promptCapability
}

// SystemPrompt renders the current system prompt: the role, one section per
// enabled capability including its live context data, and the list of
// disabled capabilities. Call again after any tool flagged as updating the
// prompt.
func (b *Builder) SystemPrompt(ctx context.Context) (string, error) {
	data := promptData{
		Role:       b.role,
		EnableTool: EnableCapabilityToolName,
	}

	for _, cap := range b.caps {
		entry := promptCapability{
			Name:        cap.Name(),
			Description: cap.Description(),
		}
		if !cap.Enabled() {
			data.Disabled = append(data.Disabled, entry)
			continue
		}

		entry.Instructions = cap.Instructions()
		entry.Examples = cap.Examples()

		contextData, err := cap.ContextData(ctx)
		if err != nil {
			return "", fmt.Errorf("context data for capability %s: %w", cap.Name(), err)
		}
		entry.Context = strings.TrimSpace(contextData)

		data.Enabled = append(data.Enabled, entry)
	}

	var out strings.Builder
	if err := promptTmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
