package utils

import (
	"strings"
)

// ScrubSecrets removes credential material from a message before it is
// logged or persisted to a job record.
func ScrubSecrets(message string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		message = strings.ReplaceAll(message, secret, "***")
	}
	return message
}
