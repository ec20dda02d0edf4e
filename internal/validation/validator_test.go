package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardroomlabs/cardroom/internal/models"
)

func TestValidateCreateUserRequest(t *testing.T) {
	tests := []struct {
		name      string
		request   models.CreateUserRequest
		wantError bool
		errorMsg  string
	}{
		{
			name: "Valid request",
			request: models.CreateUserRequest{
				Email:    "test@example.com",
				Username: "test_user",
				Password: "Password123!",
			},
			wantError: false,
		},
		{
			name: "Missing email",
			request: models.CreateUserRequest{
				Username: "test_user",
				Password: "Password123!",
			},
			wantError: true,
			errorMsg:  "email is required",
		},
		{
			name: "Invalid email format",
			request: models.CreateUserRequest{
				Email:    "invalid-email",
				Username: "test_user",
				Password: "Password123!",
			},
			wantError: true,
			errorMsg:  "email must be a valid email address",
		},
		{
			name: "Username too short",
			request: models.CreateUserRequest{
				Email:    "test@example.com",
				Username: "ab",
				Password: "Password123!",
			},
			wantError: true,
			errorMsg:  "username must be at least 3 characters long",
		},
		{
			name: "Username with invalid characters",
			request: models.CreateUserRequest{
				Email:    "test@example.com",
				Username: "test-user!",
				Password: "Password123!",
			},
			wantError: true,
			errorMsg:  "username must contain only letters, numbers, and underscores",
		},
		{
			name: "Password too short",
			request: models.CreateUserRequest{
				Email:    "test@example.com",
				Username: "test_user",
				Password: "Pass1!",
			},
			wantError: true,
			errorMsg:  "password must be at least 8 characters long",
		},
		{
			name: "Password without uppercase",
			request: models.CreateUserRequest{
				Email:    "test@example.com",
				Username: "test_user",
				Password: "password123!",
			},
			wantError: true,
			errorMsg:  "password must contain at least one uppercase letter, one lowercase letter, one number, and one special character",
		},
		{
			name: "Password without special character",
			request: models.CreateUserRequest{
				Email:    "test@example.com",
				Username: "test_user",
				Password: "Password123",
			},
			wantError: true,
			errorMsg:  "password must contain at least one uppercase letter, one lowercase letter, one number, and one special character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.request)

			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLoginRequest(t *testing.T) {
	tests := []struct {
		name      string
		request   models.LoginRequest
		wantError bool
		errorMsg  string
	}{
		{
			name: "Valid email login",
			request: models.LoginRequest{
				EmailOrUsername: "test@example.com",
				Password:        "Password123!",
			},
			wantError: false,
		},
		{
			name: "Valid username login",
			request: models.LoginRequest{
				EmailOrUsername: "test_user",
				Password:        "Password123!",
			},
			wantError: false,
		},
		{
			name: "Missing email or username",
			request: models.LoginRequest{
				Password: "Password123!",
			},
			wantError: true,
			errorMsg:  "email_or_username is required",
		},
		{
			name: "Missing password",
			request: models.LoginRequest{
				EmailOrUsername: "test@example.com",
			},
			wantError: true,
			errorMsg:  "password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.request)

			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
