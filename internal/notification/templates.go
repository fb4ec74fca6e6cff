package notification

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// Kind identifies a templated email.
type Kind string

const (
	KindTicketReceived  Kind = "ticket_received"
	KindAccountApproved Kind = "account_approved"
	KindAccountRejected Kind = "account_rejected"
	KindPasswordReset   Kind = "password_reset"
)

type template struct {
	subject string
	html    *pongo2.Template
	text    *pongo2.Template
}

// Templates renders the fixed email catalogue. Values are autoescaped in the HTML part
// and the result is filtered through a UGC policy; the text part carries values as typed.
type Templates struct {
	byKind map[Kind]template
	policy *bluemonday.Policy
}

// NewTemplates compiles the catalogue.
func NewTemplates() (*Templates, error) {
	sources := map[Kind]struct {
		subject, html, text string
	}{
		KindTicketReceived: {
			subject: "Ticket Received - Hospital IT Help Desk",
			html: `<p>Dear {{ name }},</p>
<p>Thanks for contacting us! We've received your ticket: <strong>{{ title }}</strong>.</p>
<p>Ticket ID: <code>{{ ticket_id }}</code></p>
<p>We will reach out to you shortly.</p>`,
			text: `Dear {{ name }},

Thanks for contacting us! We've received your ticket: {{ title }}.
Ticket ID: {{ ticket_id }}

We will reach out to you shortly.`,
		},
		KindAccountApproved: {
			subject: "Your Account Has Been Approved",
			html: `<p>Hi {{ name }},</p>
<p>Your staff account has been approved. You can now log in to the platform.</p>
<p><a href="{{ login_url }}">Login Now</a></p>
<p>Best regards,<br/>Hospital IT Team</p>`,
			text: `Hi {{ name }},

Your staff account has been approved. You can now log in to the platform: {{ login_url }}

Best regards,
Hospital IT Team`,
		},
		KindAccountRejected: {
			subject: "Account Rejected",
			html: `<p>Dear {{ name }},</p>
<p>Your staff account has been rejected or revoked. Please contact support if you believe this was a mistake.</p>
<p>Best regards,<br/>Hospital IT Team</p>`,
			text: `Dear {{ name }},

Your staff account has been rejected or revoked. Please contact support if you believe this was a mistake.

Best regards,
Hospital IT Team`,
		},
		KindPasswordReset: {
			subject: "Reset your password",
			html: `<p>Hi {{ name }},</p>
<p>We received a request to reset your Hospital IT Help Desk password.</p>
<p><a href="{{ reset_url }}">Choose a new password</a></p>
<p>This link expires at {{ expires_at }}. If you did not ask for a reset you can ignore this email.</p>`,
			text: `Hi {{ name }},

We received a request to reset your Hospital IT Help Desk password.
Choose a new password: {{ reset_url }}

This link expires at {{ expires_at }}. If you did not ask for a reset you can ignore this email.`,
		},
	}

	t := &Templates{byKind: make(map[Kind]template, len(sources)), policy: bluemonday.UGCPolicy()}
	for kind, src := range sources {
		html, err := pongo2.FromString(src.html)
		if err != nil {
			return nil, fmt.Errorf("compile %s html: %w", kind, err)
		}
		text, err := pongo2.FromString("{% autoescape off %}" + src.text + "{% endautoescape %}")
		if err != nil {
			return nil, fmt.Errorf("compile %s text: %w", kind, err)
		}
		t.byKind[kind] = template{subject: src.subject, html: html, text: text}
	}
	return t, nil
}

// Render produces a message for the recipient.
func (t *Templates) Render(kind Kind, to, toName string, data pongo2.Context) (Message, error) {
	tpl, ok := t.byKind[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", kind)
	}
	ctx := pongo2.Context{"name": toName}
	ctx.Update(data)

	html, err := tpl.html.Execute(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	text, err := tpl.text.Execute(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	return Message{
		To:      strings.TrimSpace(to),
		ToName:  toName,
		Subject: tpl.subject,
		HTML:    t.policy.Sanitize(html),
		Text:    text,
	}, nil
}
