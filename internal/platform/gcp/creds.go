package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions builds Google client credentials from an inline JSON key or a
// key file path. Empty input falls back to GOOGLE_APPLICATION_CREDENTIALS_JSON,
// then to application default credentials.
func ClientOptions(credentials string) []option.ClientOption {
	creds := strings.TrimSpace(credentials)
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
