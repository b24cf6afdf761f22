package llm

import (
	"strings"
	"time"

	contractx "github.com/voxgate/voxgate/agent/contract"
	openrouterx "github.com/voxgate/voxgate/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PrimaryModel          string  `envconfig:"PRIMARY_MODEL" split_words:"true"`
	SpecialistModel       string  `envconfig:"SPECIALIST_MODEL" split_words:"true"`
	PrimaryTemperature    float32 `envconfig:"PRIMARY_TEMPERATURE" split_words:"true" default:"-1"`
	SpecialistTemperature float32 `envconfig:"SPECIALIST_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// OpenRouterFor resolves the effective model settings for a persona type,
// falling back to the shared defaults when no override is set.
func (c Config) OpenRouterFor(personaType contractx.PersonaType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch personaType {
	case contractx.PersonaTypePrimary:
		if v := strings.TrimSpace(c.PrimaryModel); v != "" {
			modelName = v
		}
		if c.PrimaryTemperature >= 0 {
			temp = c.PrimaryTemperature
		}
	case contractx.PersonaTypeSpecialist:
		if v := strings.TrimSpace(c.SpecialistModel); v != "" {
			modelName = v
		}
		if c.SpecialistTemperature >= 0 {
			temp = c.SpecialistTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
