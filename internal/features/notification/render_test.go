package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	vars := map[string]any{
		"application": map[string]any{
			"applicationNumber": "TR-2026-000042",
			"departureDate":     time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
			"travellerCount":    2,
		},
		"note":   `<b>bring receipts</b> & "passport"`,
		"reason": "",
	}

	tests := []struct {
		name   string
		tmpl   string
		escape bool
		want   string
	}{
		{"dotted path", "No. {{application.applicationNumber}}", false, "No. TR-2026-000042"},
		{"spaces inside braces", "{{ application.applicationNumber }}", false, "TR-2026-000042"},
		{"missing variable", "[{{reviewer.name}}]", false, "[]"},
		{"missing leaf", "[{{application.nope}}]", false, "[]"},
		{"section is not a value", "[{{application}}]", false, "[]"},
		{"path through a scalar", "[{{note.text}}]", false, "[]"},
		{"time", "{{application.departureDate}}", false, "2 November 2026"},
		{"number", "{{application.travellerCount}}", false, "2"},
		{"escaped body", "{{note}}", true, "&lt;b&gt;bring receipts&lt;/b&gt; &amp; &#34;passport&#34;"},
		{"raw subject", "{{note}}", false, `<b>bring receipts</b> & "passport"`},
		{"untouched text", "{{ not a placeholder", false, "{{ not a placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tmpl, vars, tt.escape))
		})
	}
}
