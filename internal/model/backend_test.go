package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackend_Key(t *testing.T) {
	b := Backend{Provider: ProviderGoogle, Model: "gemini-2.5-pro"}
	assert.Equal(t, "google:gemini-2.5-pro", b.Key())
	assert.Equal(t, b.Key(), b.String())
}

func TestBackend_SafeModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gemini-flash-latest", "gemini-flash-latest"},
		{"models/gemini-2.5-pro", "models_gemini-2.5-pro"},
		{"org/name:tag", "org_name_tag"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, Backend{Model: tt.model}.SafeModel())
		})
	}
}
