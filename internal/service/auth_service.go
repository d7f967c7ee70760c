package service

import (
	"context"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.AuthResponse, error)
	Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, phone, ip, ua string) (*dto.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, r dto.ResetPasswordRequest, ip, ua string) (*dto.AuthResponse, error)
	AddRole(ctx context.Context, user *domain.User, role domain.Role) (*domain.User, error)
	SwitchRole(ctx context.Context, user *domain.User, role domain.Role) (*domain.User, error)
}
