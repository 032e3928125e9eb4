package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArowuTest/loyaltybot-backend/internal/config"
	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/utils"
)

// OperatorRole is the role claim carried by admin tokens.
const OperatorRole = "operator"

// AuthService issues and checks operator tokens
type AuthService struct {
	core
	cfg config.AdminConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg config.AdminConfig, opts Options) *AuthService {
	return &AuthService{core: newCore(opts), cfg: cfg}
}

// Login verifies an operator secret and returns a signed token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if !s.isOperator(req.OperatorID) || s.cfg.SecretHash == "" {
		s.logger.Warn("Rejected admin login", zap.Int64("operator_id", req.OperatorID))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.SecretHash), []byte(req.Secret)); err != nil {
		s.logger.Warn("Rejected admin login", zap.Int64("operator_id", req.OperatorID))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateJWT(req.OperatorID, OperatorRole, s.cfg.JWTSecret, s.cfg.TokenTTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("Operator logged in", zap.Int64("operator_id", req.OperatorID))
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

// ValidateToken returns the operator id of a valid token whose subject is
// still on the allow-list
func (s *AuthService) ValidateToken(token string) (int64, error) {
	operatorID, _, err := utils.ValidateJWT(token, s.cfg.JWTSecret)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !s.isOperator(operatorID) {
		return 0, ErrNotOperator
	}
	return operatorID, nil
}

func (s *AuthService) isOperator(id int64) bool {
	for _, op := range s.cfg.OperatorIDs {
		if op == id {
			return true
		}
	}
	return false
}

// HashSecret produces the bcrypt hash stored in admin.secretHash
func HashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hashed), nil
}
