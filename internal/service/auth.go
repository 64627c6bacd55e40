// Package service contains application services for accounts, videos and
// the social features built on top of them.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/vidhub/internal/crypto"
	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/limiter"
	"github.com/and161185/vidhub/internal/media"
	"github.com/and161185/vidhub/internal/metrics"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
)

// TokenIssuer is the token lifecycle used by AuthService.
type TokenIssuer interface {
	Issue(ctx context.Context, accountID uuid.UUID) (model.TokenPair, error)
	VerifyAndRotateRefresh(ctx context.Context, token string) (model.TokenPair, error)
	Revoke(ctx context.Context, accountID uuid.UUID) error
}

// EventRecorder counts authentication outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type noEvents struct{}

func (noEvents) AuthEvent(string, string) {}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	FullName string `json:"fullName" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService defines registration and session operations.
type AuthService interface {
	// Register creates an account; avatar is required, cover may be nil.
	Register(ctx context.Context, in RegisterInput, avatar, cover *media.File) (*model.Account, error)
	// Login checks credentials under the login limiter and starts a session.
	Login(ctx context.Context, in LoginInput, ip string) (*model.Account, model.TokenPair, error)
	// Logout ends the account's session.
	Logout(ctx context.Context, accountID uuid.UUID) error
	// Refresh rotates the session identified by a refresh token.
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// ChangePassword replaces the password after checking the old one.
	ChangePassword(ctx context.Context, accountID uuid.UUID, oldPassword, newPassword string) error
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens TokenIssuer
	lim    limiter.Limiter
	media  media.Storage
	events EventRecorder
	log    *zap.Logger
}

// NewAuthService constructs AuthService. A nil limiter disables throttling,
// a nil recorder disables event counting.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, lim limiter.Limiter, store media.Storage, events EventRecorder, log *zap.Logger) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Noop{}
	}
	if events == nil {
		events = noEvents{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim, media: store, events: events, log: log}
}

// Register validates the form, uploads media and stores the account.
// Uploaded objects are removed again if the account cannot be stored.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput, avatar, cover *media.File) (*model.Account, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	if err := check(in); err != nil {
		s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeFailed)
		return nil, err
	}
	if avatar == nil {
		s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeFailed)
		return nil, errs.Validation("avatar file is required")
	}

	switch _, err := s.users.GetByLogin(ctx, in.Username, in.Email); {
	case err == nil:
		s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeFailed)
		return nil, errs.Conflict("user with email or username already exists")
	case !errors.Is(err, errs.ErrNotFound):
		return nil, fmt.Errorf("%w: lookup account: %v", errs.ErrInternal, err)
	}

	hash, err := pkgcrypto.EncodePassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", errs.ErrInternal, err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInternal, err)
	}

	var uploaded []string
	avatarURL, err := s.media.Upload(ctx, media.KindAvatar, *avatar)
	if err != nil {
		return nil, fmt.Errorf("%w: upload avatar: %v", errs.ErrInternal, err)
	}
	uploaded = append(uploaded, avatarURL)

	var coverURL string
	if cover != nil {
		coverURL, err = s.media.Upload(ctx, media.KindCover, *cover)
		if err != nil {
			s.discard(ctx, uploaded...)
			return nil, fmt.Errorf("%w: upload cover image: %v", errs.ErrInternal, err)
		}
		uploaded = append(uploaded, coverURL)
	}

	a := &model.Account{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, a); err != nil {
		s.discard(ctx, uploaded...)
		if errors.Is(err, errs.ErrAlreadyExists) {
			s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeFailed)
			return nil, err
		}
		return nil, fmt.Errorf("%w: create account: %v", errs.ErrInternal, err)
	}
	s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeOK)
	return a, nil
}

// Login authenticates with rate limiting by (login, ip). Unknown login and
// wrong password are reported identically.
func (s *AuthServiceImpl) Login(ctx context.Context, in LoginInput, ip string) (*model.Account, model.TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" && email == "" {
		return nil, model.TokenPair{}, errs.Validation("username or email is required")
	}
	if in.Password == "" {
		return nil, model.TokenPair{}, errs.Validation("password is required")
	}
	login := username
	if login == "" {
		login = email
	}
	ipHash := limiter.HashIP(ip)

	allowed, retry, err := s.lim.Allow(ctx, login, ipHash)
	if err != nil {
		return nil, model.TokenPair{}, fmt.Errorf("%w: limiter: %v", errs.ErrInternal, err)
	}
	if !allowed {
		s.events.AuthEvent(metrics.EventLogin, metrics.OutcomeBlocked)
		return nil, model.TokenPair{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}

	a, err := s.users.GetByLogin(ctx, username, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, model.TokenPair{}, fmt.Errorf("%w: lookup account: %v", errs.ErrInternal, err)
	}
	ok := false
	if err == nil {
		ok, err = pkgcrypto.CheckPassword(in.Password, a.PasswordHash)
		if err != nil {
			return nil, model.TokenPair{}, fmt.Errorf("%w: check password: %v", errs.ErrInternal, err)
		}
	}
	if !ok {
		blocked, retry, ferr := s.lim.Failure(ctx, login, ipHash)
		if ferr != nil {
			s.log.Warn("limiter failure bookkeeping", zap.Error(ferr))
		}
		if blocked {
			s.events.AuthEvent(metrics.EventLogin, metrics.OutcomeBlocked)
			return nil, model.TokenPair{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
		}
		s.events.AuthEvent(metrics.EventLogin, metrics.OutcomeFailed)
		return nil, model.TokenPair{}, errs.InvalidCredentials("invalid user credentials")
	}

	if err := s.lim.Success(ctx, login, ipHash); err != nil {
		s.log.Warn("limiter reset", zap.Error(err))
	}

	pair, err := s.tokens.Issue(ctx, a.ID)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	a.RefreshToken = pair.RefreshToken
	s.events.AuthEvent(metrics.EventLogin, metrics.OutcomeOK)
	return a, pair, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := s.tokens.Revoke(ctx, accountID); err != nil {
		return err
	}
	s.events.AuthEvent(metrics.EventLogout, metrics.OutcomeOK)
	return nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		s.events.AuthEvent(metrics.EventRefresh, metrics.OutcomeFailed)
		return model.TokenPair{}, errs.Unauthorized("unauthorized request")
	}
	pair, err := s.tokens.VerifyAndRotateRefresh(ctx, refreshToken)
	if err != nil {
		s.events.AuthEvent(metrics.EventRefresh, metrics.OutcomeFailed)
		return model.TokenPair{}, err
	}
	s.events.AuthEvent(metrics.EventRefresh, metrics.OutcomeOK)
	return pair, nil
}

// ChangePassword leaves the current session untouched.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, accountID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return errs.Validation("oldPassword and newPassword are required")
	}
	a, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	ok, err := pkgcrypto.CheckPassword(oldPassword, a.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: check password: %v", errs.ErrInternal, err)
	}
	if !ok {
		return errs.InvalidCredentials("invalid old password")
	}
	hash, err := pkgcrypto.EncodePassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", errs.ErrInternal, err)
	}
	return s.users.UpdatePassword(ctx, accountID, hash)
}

// discard removes uploaded objects; failures are logged only.
func (s *AuthServiceImpl) discard(ctx context.Context, urls ...string) {
	discardMedia(ctx, s.media, s.log, urls...)
}

func discardMedia(ctx context.Context, store media.Storage, log *zap.Logger, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := store.Delete(ctx, u); err != nil {
			log.Warn("media cleanup", zap.String("url", u), zap.Error(err))
		}
	}
}
