package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
	"github.com/iliyamo/private-chef-marketplace/internal/utils"
)

// TokenSettings configures token issuance.
type TokenSettings struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Session is an issued token pair.
type Session struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// Registration is a signup request after field-level validation.
type Registration struct {
	Email    string
	Password string
	FullName string
	Phone    *string
	Role     string
}

// AccountService covers signup, login, token rotation and the caller's own
// account.
type AccountService struct {
	users  UserStore
	tokens TokenStore
	cfg    TokenSettings
}

func NewAccountService(users UserStore, tokens TokenStore, cfg TokenSettings) *AccountService {
	return &AccountService{users: users, tokens: tokens, cfg: cfg}
}

// Register creates a customer or chef account and signs it in.
func (s *AccountService) Register(ctx context.Context, in Registration) (*model.User, Session, error) {
	role := model.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	switch role {
	case "":
		role = model.RoleCustomer
	case model.RoleCustomer, model.RoleChef:
	default:
		return nil, Session{}, invalid("role", "must be customer or chef")
	}
	if err := utils.CheckPasswordStrength(in.Password); err != nil {
		return nil, Session{}, invalid("password", err.Error())
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, Session{}, err
	}
	u := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        in.Phone,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, Session{}, err
	}
	sess, err := s.issue(ctx, u)
	if err != nil {
		return nil, Session{}, err
	}
	return u, sess, nil
}

// Login checks credentials.  Unknown email, wrong password and deactivated
// accounts all look the same to the client.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Session{}, ErrUnauthorized
	}
	if err != nil {
		return nil, Session{}, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, Session{}, ErrUnauthorized
	}
	sess, err := s.issue(ctx, u)
	if err != nil {
		return nil, Session{}, err
	}
	return u, sess, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AccountService) Refresh(ctx context.Context, raw string) (*model.User, Session, error) {
	hash := utils.HashRefreshRaw(raw)
	u, err := s.ownerOf(ctx, hash)
	if err != nil {
		return nil, Session{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, Session{}, err
	}
	sess, err := s.issue(ctx, u)
	if err != nil {
		return nil, Session{}, err
	}
	return u, sess, nil
}

// RefreshAccess returns a new access token without rotating raw.
func (s *AccountService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	u, err := s.ownerOf(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.cfg.Secret, u.ID, string(u.Role), s.cfg.AccessTTLMin)
}

// Logout revokes one refresh token when raw is given, otherwise every token
// of callerID.
func (s *AccountService) Logout(ctx context.Context, raw string, callerID uint64) error {
	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		owner, err := s.tokens.ValidateRefresh(ctx, hash)
		if errors.Is(err, repository.ErrTokenInvalid) {
			return ErrUnauthorized
		}
		if err != nil {
			return err
		}
		if callerID != 0 && owner != callerID {
			return repository.ErrForbidden
		}
		return s.tokens.RevokeByHash(ctx, hash)
	}
	if callerID == 0 {
		return invalid("refresh_token", "required")
	}
	return s.tokens.RevokeAllForUser(ctx, callerID)
}

// Me returns the caller's account.
func (s *AccountService) Me(ctx context.Context, c Caller) (*model.User, error) {
	return s.users.GetByID(ctx, c.ID)
}

// UpdateMe edits the caller's profile fields.
func (s *AccountService) UpdateMe(ctx context.Context, c Caller, p repository.ProfilePatch) (*model.User, error) {
	if p.FullName != nil {
		name := strings.TrimSpace(*p.FullName)
		if len([]rune(name)) < 2 {
			return nil, invalid("full_name", "must be at least 2 characters")
		}
		p.FullName = &name
	}
	if err := s.users.UpdateProfile(ctx, c.ID, p); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, c.ID)
}

// Deactivate disables the caller's account and revokes all its sessions.
// Outstanding access tokens stop working because the gate re-reads is_active.
func (s *AccountService) Deactivate(ctx context.Context, c Caller) error {
	if err := s.users.Deactivate(ctx, c.ID); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, c.ID); err != nil {
		logrus.WithError(err).WithField("user_id", c.ID).Error("revoke tokens after deactivation failed")
		return err
	}
	return nil
}

func (s *AccountService) ownerOf(ctx context.Context, hash string) (*model.User, error) {
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *AccountService) issue(ctx context.Context, u *model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.Secret, u.ID, string(u.Role), s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{Access: access, Refresh: refresh}, nil
}
