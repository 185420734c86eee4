package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"room-booking/models"
	"room-booking/policy"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything longer
	maxFullNameLen = 100
	maxEmailLen    = 254
)

// UserService is the identity store.
type UserService struct {
	DB         *gorm.DB
	BcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{DB: db, BcryptCost: bcryptCost}
}

// ----------------------------------------------------
// Validation
// ----------------------------------------------------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "this field is required")
	}
	if len(email) > maxEmailLen {
		return invalid("email", "ensure this field has no more than 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "enter a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return invalid("password", "this field is required")
	case len(password) < minPasswordLen:
		return invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	case len(password) > maxPasswordLen:
		return invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordLen))
	}
	return nil
}

func validateFullName(name string) error {
	if name == "" {
		return invalid("full_name", "this field is required")
	}
	if len([]rune(name)) > maxFullNameLen {
		return invalid("full_name", "ensure this field has no more than 100 characters")
	}
	return nil
}

// newUser validates input and hashes the password. Nothing is written.
func (s *UserService) newUser(email, password, fullName string) (*models.User, error) {
	email = normalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{Email: email, FullName: fullName, Password: string(hash)}, nil
}

func insertUser(tx *gorm.DB, u *models.User) error {
	if err := tx.Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ----------------------------------------------------
// Identity operations
// ----------------------------------------------------

// Create registers a regular (non-staff) user.
func (s *UserService) Create(ctx context.Context, email, password, fullName string) (*models.User, error) {
	u, err := s.newUser(email, password, fullName)
	if err != nil {
		return nil, err
	}
	if err := insertUser(s.DB.WithContext(ctx), u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&u).Error; err != nil {
		return nil, notFoundOr(err, "get user by email")
	}
	return &u, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, notFoundOr(err, "get user")
	}
	return &u, nil
}

// Verify compares plaintext against the stored digest.
func (s *UserService) Verify(u *models.User, plaintext string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}

// burnCompare spends about the same time as Verify so that unknown emails
// are not distinguishable from wrong passwords by latency.
func (s *UserService) burnCompare(plaintext string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(plaintext))
}

// List returns every user to staff and superusers, and only the caller
// otherwise.
func (s *UserService) List(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	q := s.DB.WithContext(ctx).Order("id")
	if !policy.SeesAll(actor) {
		q = q.Where("id = ?", actor.UserID)
	}
	users := []models.User{}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns a user detail if actor is that user or an admin.
func (s *UserService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.User, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(policy.UserDetail, actor, policy.Read, policy.Resource{Kind: "user", OwnerID: u.ID}); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureSuperuser creates the bootstrap superuser, or promotes an existing
// account with that email. It reports whether a new row was inserted.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password, fullName string) (*models.User, bool, error) {
	existing, err := s.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsSuperuser && existing.IsStaff {
			return existing, false, nil
		}
		if err := s.DB.WithContext(ctx).Model(existing).
			Updates(map[string]any{"is_staff": true, "is_superuser": true}).Error; err != nil {
			return nil, false, fmt.Errorf("promote superuser: %w", err)
		}
		existing.IsStaff, existing.IsSuperuser = true, true
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	u, err := s.newUser(email, password, fullName)
	if err != nil {
		return nil, false, err
	}
	u.IsStaff, u.IsSuperuser = true, true
	if err := insertUser(s.DB.WithContext(ctx), u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// another instance seeded it first
			u, err = s.GetByEmail(ctx, email)
			return u, false, err
		}
		return nil, false, err
	}
	return u, true, nil
}
