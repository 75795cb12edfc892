package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLocalRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"/connect/authorize?client_id=client_id&scope=openid", true},
		{"/", true},
		{"", false},
		{"connect/authorize", false},
		{"//evil.com", false},
		{"/\\evil.com", false},
		{"https://evil.com/", false},
		{"javascript:alert(1)", false},
		{"/path\r\nSet-Cookie: x=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLocalRedirect(tt.target))
		})
	}
}

func TestLocalRedirectOr(t *testing.T) {
	assert.Equal(t, "/connect/authorize", LocalRedirectOr("/connect/authorize", "/"))
	assert.Equal(t, "/", LocalRedirectOr("https://evil.com", "/"))
}
