// Package notify renders outbound notifications and hands them to a
// transport. Senders are best-effort from the caller's point of view.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

// Dispatcher sends the rendered template identified by templateID.
type Dispatcher interface {
	Send(ctx context.Context, templateID string, vars map[string]any) error
}

const (
	TemplateOrderPlaced    = "order_placed"
	TemplateContactMessage = "contact_message"
)

var templates = map[string]*template.Template{
	TemplateOrderPlaced: template.Must(template.New(TemplateOrderPlaced).Option("missingkey=zero").Parse(
		`New brick order {{.ref}}
Customer: {{.name}} ({{.phone}}){{if .email}} <{{.email}}>{{end}}
Bricks: {{.quantity}} x {{.brick}} @ Rs {{.unit_price}}
Location: {{.location}} ({{.distance_km}} km, {{.trips}} trips)
Delivery: Rs {{.delivery_charge}}
Total: Rs {{.total}}
Payment: {{.payment_method}}{{if .payment_proof}} proof {{.payment_proof}}{{end}}`)),
	TemplateContactMessage: template.Must(template.New(TemplateContactMessage).Option("missingkey=zero").Parse(
		`Message from {{.name}} ({{.contact}}):
{{.body}}`)),
}

// Envelope is the wire form published to message brokers.
type Envelope struct {
	Template string         `json:"template"`
	Text     string         `json:"text"`
	Vars     map[string]any `json:"vars"`
	SentAt   time.Time      `json:"sent_at"`
}

// Render executes templateID against vars. Safe for concurrent use.
func Render(templateID string, vars map[string]any) (string, error) {
	t, ok := templates[templateID]
	if !ok {
		return "", fmt.Errorf("unknown template %q", templateID)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", templateID, err)
	}
	return buf.String(), nil
}

func newEnvelope(templateID string, vars map[string]any) (Envelope, error) {
	text, err := Render(templateID, vars)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Template: templateID, Text: text, Vars: vars, SentAt: time.Now().UTC()}, nil
}

type timeoutDispatcher struct {
	next    Dispatcher
	timeout time.Duration
}

// WithTimeout bounds every Send of next by d. A non-positive d returns next.
func WithTimeout(next Dispatcher, d time.Duration) Dispatcher {
	if d <= 0 {
		return next
	}
	return &timeoutDispatcher{next: next, timeout: d}
}

func (t *timeoutDispatcher) Send(ctx context.Context, templateID string, vars map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Send(ctx, templateID, vars)
}
