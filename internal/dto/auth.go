package dto

import "vaanikaam/internal/domain"

type RegisterRequest struct {
	AssertionToken string `json:"assertionToken"`
	// Accepted for compatibility with clients still sending the provider's
	// original field name.
	FirebaseToken string `json:"firebaseToken,omitempty"`
	BotCheckToken string `json:"botCheckToken,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Password      string `json:"password"`
}

// Assertion returns whichever assertion field the client populated.
func (r RegisterRequest) Assertion() string {
	if r.AssertionToken != "" {
		return r.AssertionToken
	}
	return r.FirebaseToken
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Phone         string `json:"phone"`
	BotCheckToken string `json:"botCheckToken,omitempty"`
}

type ResetPasswordRequest struct {
	Phone       string `json:"phone"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type AuthResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

type ForgotPasswordResponse struct {
	Message string `json:"message"`
	// Populated only when the OTP debug flag is set.
	Otp  string `json:"otp,omitempty"`
	Note string `json:"note,omitempty"`
}
