package auth_handling

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
)

// Environment variables driving remote mode.
const (
	EnvOrgID      = "GCP_ORG_ID"
	EnvBucket     = "GCS_BUCKET"
	EnvOutputFile = "REPORT_FILENAME"
)

// RunConfig is the remote-mode configuration, built once at process start
// and passed into the run functions.
type RunConfig struct {
	OrgID      string
	Bucket     string
	OutputFile string
}

// LoadRemoteConfig reads the required environment variables, reporting
// every missing one in a single aggregated error.
func LoadRemoteConfig() (RunConfig, error) {
	cfg := RunConfig{
		OrgID:      os.Getenv(EnvOrgID),
		Bucket:     os.Getenv(EnvBucket),
		OutputFile: os.Getenv(EnvOutputFile),
	}

	var err error
	if cfg.OrgID == "" {
		err = multierr.Append(err, fmt.Errorf("missing required environment variable %s", EnvOrgID))
	}
	if cfg.Bucket == "" {
		err = multierr.Append(err, fmt.Errorf("missing required environment variable %s", EnvBucket))
	}
	if cfg.OutputFile == "" {
		err = multierr.Append(err, fmt.Errorf("missing required environment variable %s", EnvOutputFile))
	}

	return cfg, err
}

// RemoteEnvSet reports whether any remote-mode environment variable is
// present; local mode refuses to run alongside them.
func RemoteEnvSet() []string {
	var set []string
	for _, name := range []string{EnvOrgID, EnvBucket, EnvOutputFile} {
		if os.Getenv(name) != "" {
			set = append(set, name)
		}
	}
	return set
}
