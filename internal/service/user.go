package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"situationroom/internal/auth"
	"situationroom/internal/db"
	"situationroom/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
)

// ErrBadCredentials is returned for an unknown email or a wrong password
var ErrBadCredentials = errors.New("invalid email or password")

type UserService struct {
	store UserStore
	jwt   *auth.JWTConfig
}

func NewUserService(store UserStore, jwt *auth.JWTConfig) *UserService {
	return &UserService{store: store, jwt: jwt}
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Create adds an account, or resets the one already holding the email
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, invalid("email and password are required")
	}
	if !auth.KnownRole(input.Role) {
		return nil, invalid("unknown role %q", input.Role)
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	row, err := s.store.UpsertUser(ctx, db.CreateUserParams{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	u := dbUserToModel(row)
	return &u, nil
}

// Login checks the credentials and issues a bearer token
func (s *UserService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	row, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(row.PasswordHash, password) {
		return "", nil, ErrBadCredentials
	}

	token, err := s.jwt.Issue(auth.User{ID: row.ID, Email: row.Email, Role: row.Role})
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	u := dbUserToModel(row)
	return token, &u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	row, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	u := dbUserToModel(row)
	return &u, nil
}
