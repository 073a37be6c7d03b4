package session

// Credentials is the access/refresh token pair of an authenticated session.
// The JSON shape matches the sign-in, sign-up and refresh responses.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserProfile is the signed-in user's profile as returned by the profile endpoints.
// Its lifecycle is independent of Credentials, except that both are cleared together.
type UserProfile struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
}
