package captcha

import (
	"strings"

	"rentora-utils/pkg/utils"
)

// Challenge holds the parameters of an interactive challenge found on a
// login page. It exists only for the duration of one login step.
type Challenge struct {
	SiteKey string
	PageURL string
}

// DetectRecaptcha reports whether the page contains a reCAPTCHA widget and,
// if so, its site key.
func DetectRecaptcha(pageContent, pageURL string) (*Challenge, bool) {
	lower := strings.ToLower(pageContent)
	if !strings.Contains(lower, "g-recaptcha") && !strings.Contains(lower, "recaptcha") {
		return nil, false
	}

	siteKey := ExtractRecaptchaSiteKey(pageContent)
	if siteKey == "" {
		return nil, false
	}

	return &Challenge{SiteKey: siteKey, PageURL: pageURL}, true
}

// ExtractRecaptchaSiteKey extracts the reCAPTCHA site key from HTML content
func ExtractRecaptchaSiteKey(html string) string {
	patterns := []string{
		`data-sitekey="([^"]+)"`,
		`data-sitekey='([^']+)'`,
		`"sitekey"\s*:\s*"([^"]+)"`,
		`'sitekey'\s*:\s*'([^']+)'`,
	}

	for _, pattern := range patterns {
		if matches := utils.FindRegexMatch(html, pattern); len(matches) > 1 {
			return matches[1]
		}
	}

	return ""
}
