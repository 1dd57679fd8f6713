package config

import (
	"strings"
)

// MissingVarsError reports every required environment variable that was not set.
type MissingVarsError struct {
	Vars []string
}

func (e *MissingVarsError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Vars, ", ")
}

type requirement struct {
	env   string
	value string
}

func check(reqs ...requirement) error {
	var missing []string

	for _, r := range reqs {
		if r.value == "" {
			missing = append(missing, r.env)
		}
	}

	if len(missing) > 0 {
		return &MissingVarsError{Vars: missing}
	}

	return nil
}

// RequireWorker checks the credentials for a fetch, render and publish run.
func (c *Config) RequireWorker() error {
	return check(
		requirement{EnvAirtableAPIKey, c.Airtable.APIKey},
		requirement{EnvAirtableBaseID, c.Airtable.BaseID},
		requirement{EnvGhostAdminKey, c.Ghost.AdminKey},
	)
}

// RequireRecords checks the credentials needed to read bookings.
func (c *Config) RequireRecords() error {
	return check(
		requirement{EnvAirtableAPIKey, c.Airtable.APIKey},
		requirement{EnvAirtableBaseID, c.Airtable.BaseID},
	)
}

// RequirePublisher checks the credentials needed to create posts.
func (c *Config) RequirePublisher() error {
	return check(
		requirement{EnvGhostAdminKey, c.Ghost.AdminKey},
		requirement{EnvGhostAPIURL, c.Ghost.URL},
	)
}
