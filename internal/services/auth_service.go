// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/config"
	"github.com/equipdesk/equipdesk-backend/internal/models"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Operator     *models.Operator `json:"operator"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"` // in seconds
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var operator models.Operator
	if err := s.db.Where("username = ?", req.Username).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid username or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := operator.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid username or password")
	}

	if operator.Status != models.OperatorStatusActive {
		return nil, errors.New("account is suspended")
	}

	now := time.Now()
	operator.LastLoginAt = &now
	s.db.Model(&operator).Update("last_login_at", now)

	return s.buildAuthResponse(&operator)
}

func (s *AuthService) RefreshToken(req *RefreshTokenRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	operatorID, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	var operator models.Operator
	if err := s.db.Where("id = ?", operatorID).First(&operator).Error; err != nil {
		return nil, errors.New("operator not found")
	}

	if operator.Status != models.OperatorStatusActive {
		return nil, errors.New("account is suspended")
	}

	return s.buildAuthResponse(&operator)
}

func (s *AuthService) ChangePassword(operatorID string, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var operator models.Operator
	if err := s.db.Where("id = ?", operatorID).First(&operator).Error; err != nil {
		return errors.New("operator not found")
	}

	if err := operator.CheckPassword(req.CurrentPassword); err != nil {
		return errors.New("current password is incorrect")
	}

	if err := operator.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Save(&operator).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *AuthService) GetProfile(operatorID string) (*models.Operator, error) {
	var operator models.Operator
	if err := s.db.Where("id = ?", operatorID).First(&operator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("operator not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &operator, nil
}

func (s *AuthService) buildAuthResponse(operator *models.Operator) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(
		operator.ID,
		operator.Username,
		string(operator.Role),
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(operator.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		Operator:     operator,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
