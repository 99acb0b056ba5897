package model

import "strings"

// Known providers.
const (
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
)

// Backend identifies one model on one provider.
type Backend struct {
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider"`
	Model    string `yaml:"model" mapstructure:"model" json:"model"`
}

// Key returns the cooldown map key, "provider:model".
func (b Backend) Key() string {
	return b.Provider + ":" + b.Model
}

func (b Backend) String() string {
	return b.Key()
}

// SafeModel returns the model name with path and colon separators replaced
// so it can be embedded in a file name.
func (b Backend) SafeModel() string {
	return strings.NewReplacer("/", "_", ":", "_").Replace(b.Model)
}
