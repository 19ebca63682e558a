package apimodel

// TokenResponse is the body returned by both the sign-in and the refresh endpoints.
type TokenResponse struct {
	// AccessToken is the short-lived bearer credential.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Authorization: Bearer <access_token>
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken is the longer-lived credential exchanged at /refresh for a new pair.
	// Example: "0f3b8c0e-8f1c-4f63-9a55-2b1a3f1d7c10"
	// Behavior: Single use, the server rotates it on every refresh
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Complete reports whether both halves of the pair are present.
func (t TokenResponse) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}
