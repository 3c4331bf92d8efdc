package clerkevent

import "encoding/json"

// WebhookEvent is the envelope Clerk posts to the webhook endpoint.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
	Verification struct {
		Status string `json:"status"`
	} `json:"verification"`
}

// UserData carries the fields we consume from user.created / user.updated.
// Role and school membership ride on Clerk public metadata so the school
// admin tooling can assign them without touching this service.
type UserData struct {
	ID              string         `json:"id"`
	Username        string         `json:"username"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	ImageURL        string         `json:"image_url"`
	ProfileImageURL string         `json:"profile_image_url"`
	EmailAddresses  []EmailAddress `json:"email_addresses"`
	PublicMetadata  struct {
		Role       string `json:"role"`
		SchoolCode string `json:"school_code"`
		SchoolName string `json:"school_name"`
	} `json:"public_metadata"`
}
