package models

// ScrapeRequest represents the request payload for triggering a bill scrape.
// Username/password are optional: when omitted the credential service is
// consulted for the property.
type ScrapeRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	PropertyID string `json:"property_id" validate:"required"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}
