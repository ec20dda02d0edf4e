package services

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cardroomlabs/cardroom/internal/auth"
	"github.com/cardroomlabs/cardroom/internal/database"
	"github.com/cardroomlabs/cardroom/internal/models"
)

type AuthService struct {
	db         *database.DB
	jwtManager *auth.JWTManager
}

func NewAuthService(db *database.DB, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		db:         db,
		jwtManager: jwtManager,
	}
}

func (s *AuthService) RegisterUser(req models.CreateUserRequest) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashedPassword,
		Role:         models.UserRolePlayer,
	}

	// Unique indexes on email and username decide duplicates; no pre-check
	// read, so concurrent registrations cannot race past each other.
	if err := s.db.Create(&user).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, fmt.Errorf("%s", database.GetErrorMessage(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

func (s *AuthService) LoginUser(req models.LoginRequest) (*models.LoginResponse, error) {
	var user models.User

	if err := s.db.Where("email = ? OR username = ?", req.EmailOrUsername, req.EmailOrUsername).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("invalid credentials")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.jwtManager.GenerateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("User logged in successfully", "user_id", user.ID, "username", user.Username)

	return &models.LoginResponse{
		User:  user,
		Token: token,
	}, nil
}

func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
