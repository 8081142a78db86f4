package models

// UserProfile is the identity returned by GET /auth/me. It is replaced
// wholesale on every refresh, never patched.
type UserProfile struct {
	ID            int     `json:"id"`
	Email         string  `json:"email"`
	FullName      string  `json:"full_name,omitempty"`
	IsActive      bool    `json:"is_active"`
	IsPremium     bool    `json:"is_premium"`
	IsSuperuser   bool    `json:"is_superuser"`
	TransactionID *string `json:"transaction_id,omitempty"`
}

// UpgradePending reports whether a payment reference was submitted but the
// account has not been promoted yet.
func (u *UserProfile) UpgradePending() bool {
	return u != nil && !u.IsPremium && u.TransactionID != nil && *u.TransactionID != ""
}

// DisplayName prefers the full name and falls back to the email.
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// TokenBundle is the response of the token exchange.
type TokenBundle struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PendingUser is an account awaiting admin approval.
type PendingUser struct {
	ID            int     `json:"id"`
	Email         string  `json:"email"`
	FullName      string  `json:"full_name,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
	IsPremium     bool    `json:"is_premium"`
}
