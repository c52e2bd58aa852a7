// Package auth registers users, checks passwords and issues access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-course/internal/events"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user id does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput wraps registration validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore persists users. Emails are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// Session is what register and login return.
type Session struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Service implements register, login and lookup.
type Service struct {
	users  UserStore
	tokens *Tokens
	events events.Logger
	cost   int
}

// NewService creates an auth service.
func NewService(users UserStore, tokens *Tokens, ev events.Logger) *Service {
	if ev == nil {
		ev = events.Nop{}
	}
	return &Service{users: users, tokens: tokens, events: ev, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register creates an account and signs the user in.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (Session, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Session{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hashing password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
	})
	if err != nil {
		return Session{}, err
	}

	slog.Info("user registered", "user_id", u.ID)
	events.Emit(ctx, s.events, events.Event{UserID: u.ID, EventType: events.UserRegistered})
	return s.session(u)
}

// Login checks a password and signs the user in.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

// User returns the account with id.
func (s *Service) User(ctx context.Context, id string) (User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *Service) session(u User) (Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, fmt.Errorf("issuing token: %w", err)
	}
	return Session{AccessToken: token, User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
