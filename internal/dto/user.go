package dto

import "vaanikaam/internal/domain"

type RoleRequest struct {
	Role string `json:"role"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

// ErrorResponse carries a short human-readable message plus machine-readable
// hint flags so clients can route the user to the correct next step.
type ErrorResponse struct {
	Message                string `json:"message"`
	ShouldUsePasswordLogin bool   `json:"shouldUsePasswordLogin,omitempty"`
	ShouldVerifyPhone      bool   `json:"shouldVerifyPhone,omitempty"`
}
