package notify

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

const DefaultTemplate = "✅ BACK IN STOCK: {{.Name}} is now available!\n   Quantity: {{.Quantity}}"

// Renderer formats a transition into a human readable message.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses text as a text/template over model.Transition.
// An empty text selects DefaultTemplate.
func NewRenderer(text string) (*Renderer, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}

	tmpl, err := template.New("notification").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse notification template: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(t model.Transition) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, t); err != nil {
		return "", fmt.Errorf("render notification for %s: %w", t.ID, err)
	}
	return sb.String(), nil
}
