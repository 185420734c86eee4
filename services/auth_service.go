package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"room-booking/models"
	"room-booking/policy"
	"room-booking/utils"
)

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService issues and resolves bearer tokens.
type AuthService struct {
	DB    *gorm.DB
	Users *UserService

	newKey func() (string, error)
}

func NewAuthService(db *gorm.DB, users *UserService) *AuthService {
	return &AuthService{DB: db, Users: users, newKey: utils.GenerateAPIToken}
}

// Login verifies the credentials and returns the user's token, creating it
// on first login. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.Users.burnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.Users.Verify(u, password) {
		return nil, ErrInvalidCredentials
	}

	key, err := s.tokenFor(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: key, User: u}, nil
}

// Register creates the user and its token in one transaction.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	u, err := s.Users.newUser(email, password, fullName)
	if err != nil {
		return nil, err
	}

	var key string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertUser(tx, u); err != nil {
			return err
		}
		key, err = s.insertToken(tx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: key, User: u}, nil
}

// Resolve maps a token key to its actor.
func (s *AuthService) Resolve(ctx context.Context, key string) (policy.Actor, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return policy.Anonymous, ErrUnauthenticated
	}

	var u models.User
	err := s.DB.WithContext(ctx).
		Joins("JOIN tokens ON tokens.user_id = users.id").
		Where("tokens.token_key = ?", key).
		Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Anonymous, ErrUnauthenticated
		}
		return policy.Anonymous, fmt.Errorf("resolve token: %w", err)
	}
	return policy.Actor{UserID: u.ID, IsStaff: u.IsStaff, IsSuperuser: u.IsSuperuser}, nil
}

// Logout deletes the actor's token. The next login issues a new one.
func (s *AuthService) Logout(ctx context.Context, actor policy.Actor) error {
	if !actor.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", actor.UserID).Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// ----------------------------------------------------
// Tokens
// ----------------------------------------------------

// tokenFor returns the user's existing token or creates one. A concurrent
// login that wins the insert is picked up by the second read.
func (s *AuthService) tokenFor(ctx context.Context, userID uint) (string, error) {
	db := s.DB.WithContext(ctx)

	key, err := findToken(db, userID)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("get token: %w", err)
	}

	key, err = s.insertToken(db, userID)
	if err == nil {
		return key, nil
	}
	if !isDuplicateKey(err) {
		return "", err
	}
	key, err = findToken(db, userID)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return key, nil
}

func findToken(db *gorm.DB, userID uint) (string, error) {
	var tok models.Token
	if err := db.Where("user_id = ?", userID).Take(&tok).Error; err != nil {
		return "", err
	}
	return tok.Key, nil
}

func (s *AuthService) insertToken(tx *gorm.DB, userID uint) (string, error) {
	key, err := s.newKey()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := tx.Create(&models.Token{Key: key, UserID: userID}).Error; err != nil {
		if isDuplicateKey(err) {
			return "", err
		}
		return "", fmt.Errorf("create token: %w", err)
	}
	return key, nil
}
