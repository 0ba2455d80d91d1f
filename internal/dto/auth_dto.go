package dto

// RegisterRequest registers a device installation. Device UUIDs are always 36
// characters.
type RegisterRequest struct {
	UUID string `json:"uuid" validate:"required,len=36"`
}

// SignInRequest exchanges a Google ID token for a session token.
type SignInRequest struct {
	UUID          string `json:"uuid" validate:"required,len=36"`
	GoogleIDToken string `json:"google_id_token" validate:"required"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	JSONWebToken string `json:"json_web_token"`
}

// PermissionsResponse reports the signed-in user's privilege flags.
type PermissionsResponse struct {
	Moderator bool `json:"moderator"`
	Admin     bool `json:"admin"`
}

// PushTokenRequest updates the client's push notification token. Push tokens
// are always 64 characters.
type PushTokenRequest struct {
	PushToken string `json:"push_token" validate:"required,len=64"`
}
