package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ministry of Foreign Affairs", "ministry-of-foreign-affairs"},
		{"  --Travel & Approvals!! ", "travel-approvals"},
		{"MFA 2027", "mfa-2027"},
		{"", "travel"},
		{"***", "travel"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in, "travel"))
		})
	}
}
