package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env"
	"go.uber.org/automaxprocs/maxprocs"
)

type EnvironmentVariables struct {
	SlashCommandToken  string `env:"SLASH_COMMAND_TOKEN,required"`
	ValidChannelID     string `env:"VALID_CHANNEL_ID,required"`
	ValidUserID        string `env:"VALID_USER_ID,required"`
	BucketName         string `env:"BUCKET_NAME,required"`
	IncomingWebhookURL string `env:"INCOMING_WEBHOOK_URL"`
	TopicARN           string `env:"TOPIC_ARN"`
	TimeZone           string `env:"TIME_ZONE" envDefault:"UTC"`
	RemindYearsBack    int    `env:"REMIND_YEARS_BACK" envDefault:"10"`
	HTTPTimeoutSeconds int    `env:"HTTP_TIMEOUT_SECONDS" envDefault:"10"`
}

var ErrMissingWebhookURL = errors.New("INCOMING_WEBHOOK_URL is required to send reminders")

// Setup sets GOMAXPROCS and parses the environment.
func Setup() (envVars *EnvironmentVariables, err error) {
	_, err = maxprocs.Set()
	if err != nil {
		return nil, fmt.Errorf("error setting GOMAXPROCS %w", err)
	}

	return Parse()
}

func Parse() (*EnvironmentVariables, error) {
	envVars := &EnvironmentVariables{}

	err := env.Parse(envVars)
	if err != nil {
		return nil, fmt.Errorf("error parsing environment variables %w", err)
	}

	// required only checks that a variable is set. An empty expected value
	// would match a request that omits the field.
	for name, value := range map[string]string{
		"SLASH_COMMAND_TOKEN": envVars.SlashCommandToken,
		"VALID_CHANNEL_ID":    envVars.ValidChannelID,
		"VALID_USER_ID":       envVars.ValidUserID,
		"BUCKET_NAME":         envVars.BucketName,
	} {
		if value == "" {
			return nil, fmt.Errorf("error environment variable %s is empty", name)
		}
	}

	if envVars.RemindYearsBack <= 0 {
		return nil, fmt.Errorf("error REMIND_YEARS_BACK must be positive, got %d", envVars.RemindYearsBack)
	}

	if envVars.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("error HTTP_TIMEOUT_SECONDS must be positive, got %d", envVars.HTTPTimeoutSeconds)
	}

	if _, err := envVars.Location(); err != nil {
		return nil, err
	}

	return envVars, nil
}

// Location is the time zone "today" is computed in for reminders.
func (e *EnvironmentVariables) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("error loading time zone %s %w", e.TimeZone, err)
	}

	return loc, nil
}

func (e *EnvironmentVariables) HTTPTimeout() time.Duration {
	return time.Duration(e.HTTPTimeoutSeconds) * time.Second
}
