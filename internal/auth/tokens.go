package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CredentialStore is the part of account storage the token lifecycle needs.
type CredentialStore interface {
	// GetByID loads an account; errs.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// SetRefreshToken overwrites the current refresh token unconditionally.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// SwapRefreshToken replaces old with next only if old is still current.
	SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error)
	// ClearRefreshToken ends the account's session.
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}

// Config holds the token policy. Secrets must be distinct.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Service is the token issuer and verifier.
type Service struct {
	store   CredentialStore
	access  *Signer
	refresh *Signer
}

// Option customizes a Service.
type Option func(*options)

type options struct{ now func() time.Time }

// WithClock overrides the clock used for iat/exp and for verification.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewService constructs a token Service.
func NewService(store CredentialStore, cfg Config, opts ...Option) (*Service, error) {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errEmptySecret
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	access, err := NewSigner(cfg.AccessSecret, cfg.AccessTTL, cfg.Issuer, o.now)
	if err != nil {
		return nil, fmt.Errorf("access signer: %w", err)
	}
	refresh, err := NewSigner(cfg.RefreshSecret, cfg.RefreshTTL, cfg.Issuer, o.now)
	if err != nil {
		return nil, fmt.Errorf("refresh signer: %w", err)
	}
	return &Service{store: store, access: access, refresh: refresh}, nil
}

// Issue signs a fresh pair for an existing account and persists the refresh
// token as the account's current one. No tokens are returned on failure.
func (s *Service) Issue(ctx context.Context, accountID uuid.UUID) (model.TokenPair, error) {
	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: load account: %v", errs.ErrInternal, err)
	}
	pair, err := s.sign(acct)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := s.store.SetRefreshToken(ctx, acct.ID, pair.RefreshToken); err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: persist refresh token: %v", errs.ErrInternal, err)
	}
	return pair, nil
}

// VerifyAccess returns the account id asserted by a valid access token.
// It never touches storage.
func (s *Service) VerifyAccess(token string) (uuid.UUID, error) {
	claims, err := s.access.Verify(token)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

// VerifyAndRotateRefresh accepts a refresh token only while it is the
// account's current one and replaces it with a fresh pair.
func (s *Service) VerifyAndRotateRefresh(ctx context.Context, token string) (model.TokenPair, error) {
	claims, err := s.refresh.Verify(token)
	if err != nil {
		return model.TokenPair{}, errs.Unauthorized("invalid refresh token")
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.TokenPair{}, errs.Unauthorized("invalid refresh token")
	}

	acct, err := s.store.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.TokenPair{}, errs.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: load account: %v", errs.ErrInternal, err)
	}
	if acct.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(acct.RefreshToken), []byte(token)) != 1 {
		return model.TokenPair{}, errs.Unauthorized("refresh token is expired or used")
	}

	pair, err := s.sign(acct)
	if err != nil {
		return model.TokenPair{}, err
	}
	swapped, err := s.store.SwapRefreshToken(ctx, acct.ID, token, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: persist refresh token: %v", errs.ErrInternal, err)
	}
	if !swapped {
		// a concurrent refresh with the same token won
		return model.TokenPair{}, errs.Unauthorized("refresh token is expired or used")
	}
	return pair, nil
}

// Revoke clears the account's current refresh token.
func (s *Service) Revoke(ctx context.Context, accountID uuid.UUID) error {
	if err := s.store.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: clear refresh token: %v", errs.ErrInternal, err)
	}
	return nil
}

func (s *Service) sign(acct *model.Account) (model.TokenPair, error) {
	at, atExp, err := s.access.Sign(acct.ID, Claims{
		Username: acct.Username,
		Email:    acct.Email,
		FullName: acct.FullName,
	})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: sign access token: %v", errs.ErrInternal, err)
	}
	rt, rtExp, err := s.refresh.Sign(acct.ID, Claims{})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: sign refresh token: %v", errs.ErrInternal, err)
	}
	return model.TokenPair{
		AccessToken:      at,
		RefreshToken:     rt,
		AccessExpiresAt:  atExp,
		RefreshExpiresAt: rtExp,
	}, nil
}
