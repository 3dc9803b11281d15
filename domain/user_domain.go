package domain

import (
	"errors"
)

var (
	MessageSuccessRegister       = "user registered successfully"
	MessageSuccessLogin          = "login success"
	MessageSuccessLogout         = "logout success"
	MessageSuccessGetUser        = "success get user"
	MessageSuccessGetUsers       = "success get users"
	MessageSuccessChangePassword = "password changed successfully"
	MessageSuccessSendResetMail  = "password reset email sent"
	MessageSuccessResetPassword  = "password reset successfully"

	MessageFailedRegister       = "failed to register user"
	MessageFailedLogin          = "failed to login"
	MessageFailedGetUser        = "failed to get user"
	MessageFailedGetUsers       = "failed to get users"
	MessageFailedChangePassword = "failed to change password"
	MessageFailedSendResetMail  = "failed to send password reset email"
	MessageFailedResetPassword  = "failed to reset password"

	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrCredentialsInvalid    = errors.New("invalid email or password")
	ErrPasswordIncorrect     = errors.New("current password is incorrect")
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"omitempty,max=150"`
		LastName  string `json:"last_name" validate:"omitempty,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=128"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"auth_token"`
	}

	ChangePasswordRequest struct {
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
	}

	UserResponse struct {
		Email        string `json:"email"`
		ID           string `json:"id"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}
)
