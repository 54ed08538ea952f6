package auth_handling

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// GCPAuth builds Google credentials from a service account key file when
// one is given, falling back to Application Default Credentials.
func GCPAuth(ctx context.Context, credentialsFile string) (*google.Credentials, error) {
	if credentialsFile == "" {
		creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %v", err)
		}
		return creds, nil
	}

	jsonKey, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file: %v", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, jsonKey, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Credentials: %v", err)
	}
	return creds, nil
}
