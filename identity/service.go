/*
Package identity resolves credentials to users and roles.

PURPOSE:
  The write core only needs "who is acting". This package turns a login
  (email + password) into a signed token, and a token back into the
  current user row, whose role is re-read on every request so demotions
  take effect immediately.

ROLES:
  user < admin < super_admin (domain.Role.AtLeast)
*/
package identity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/domain"
)

type NewUser struct {
	Name     string      `json:"name" validate:"required,max=200"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     domain.Role `json:"role" validate:"omitempty,oneof=user admin super_admin"`
}

type Service struct {
	store  domain.Store
	audit  *audit.Recorder
	tokens *Tokens
	logger *zap.Logger
}

func NewService(store domain.Store, recorder *audit.Recorder, tokens *Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, audit: recorder, tokens: tokens, logger: logger}
}

// Register creates a user. Only a super_admin may create another
// super_admin; the caller enforces that with the acting role.
func (s *Service) Register(ctx context.Context, in NewUser, actor *int64) (*domain.User, error) {
	if err := s.audit.CheckActor(actor); err != nil {
		return nil, err
	}
	return s.register(ctx, in, actor)
}

// register inserts the user and its audit entry. Without an actor the
// entry is attributed to the new account itself.
func (s *Service) register(ctx context.Context, in NewUser, actor *int64) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *domain.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		user, err = tx.InsertUser(ctx, domain.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: in.Role})
		if err != nil {
			return err
		}
		by := actor
		if by == nil {
			by = &user.ID
		}
		return s.audit.Record(ctx, tx, by, domain.ActionCreateUser, domain.EntityUser, &user.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns a signed token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", nil, err
	}
	if user == nil || CheckPassword(password, user.PasswordHash) != nil {
		return "", nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("user authenticated", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return token, user, nil
}

// Resolve verifies a token and loads its user.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d no longer exists", domain.ErrUnauthorized, claims.UserID)
	}
	return user, nil
}

// EnsureBootstrapAdmin creates a super_admin with the given credentials
// unless a user with that email already exists.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if name == "" {
		name = "Administrator"
	}
	user, err := s.register(ctx, NewUser{Name: name, Email: email, Password: password, Role: domain.RoleSuperAdmin}, nil)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, true, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	return s.store.ListUsers(ctx, page)
}
