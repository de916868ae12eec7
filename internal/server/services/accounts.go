// Package services contains server-side business logic. AccountService
// implements registration, login, token refresh, profile update, account
// deletion, and the public user lookup on top of the account store, the
// password hasher, the identifier generator and the token codec.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/optional"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	"github.com/nyaruka/phonenumbers"
)

// IDGenerator hands out unique user ids.
type IDGenerator interface {
	NextID() uint64
}

// TokenMinter signs session tokens for a public view.
type TokenMinter interface {
	Mint(view models.PublicView) (string, error)
}

// RegisterInput carries the fields of a new account. Nil pointers mean the
// field was not given.
type RegisterInput struct {
	Name     string
	Password string
	Email    *string
	Phone    *string
	Gender   *bool
	Age      *int
}

// ProfileChanges lists the fields to change. Only set fields are applied; a
// set pointer holding nil clears the field.
type ProfileChanges struct {
	Name     optional.Value[string]
	Email    optional.Value[*string]
	Phone    optional.Value[*string]
	Gender   optional.Value[*bool]
	Age      optional.Value[*int]
	Password optional.Value[string]
}

type AccountService struct {
	store    repomanager.RepositoryManager
	ids      IDGenerator
	hasher   auth.PasswordHasher
	tokens   TokenMinter
	registry *auth.Registry
	region   string
	now      func() time.Time
	log      logging.Logger
}

type Option func(*AccountService)

// WithPhoneRegion sets the region used to parse phone numbers written
// without a leading "+".
func WithPhoneRegion(region string) Option {
	return func(s *AccountService) { s.region = strings.ToUpper(region) }
}

func WithLogger(l logging.Logger) Option {
	return func(s *AccountService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *AccountService) { s.now = now }
}

func NewAccountService(
	store repomanager.RepositoryManager,
	ids IDGenerator,
	hasher auth.PasswordHasher,
	tokens TokenMinter,
	registry *auth.Registry,
	opts ...Option,
) *AccountService {
	s := &AccountService{
		store:    store,
		ids:      ids,
		hasher:   hasher,
		tokens:   tokens,
		registry: registry,
		region:   "US",
		now:      time.Now,
		log:      logging.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register creates an account and returns a token for it. A name, email or
// phone equal to any existing account's name, email or phone yields
// common.ErrAlreadyExists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (string, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return "", err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return "", err
	}
	phone, err := s.normalizePhone(in.Phone)
	if err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	u := &models.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		Gender:       in.Gender,
		Age:          in.Age,
		PasswordHash: hash,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		taken, err := s.identifierTaken(ctx, repo, 0, u.Name, deref(u.Email), deref(u.Phone))
		if err != nil {
			return err
		}
		if taken {
			return common.ErrAlreadyExists
		}

		u.ID = s.ids.NextID()
		return repo.Create(ctx, u)
	})
	if err != nil {
		return "", err
	}

	s.log.Info(ctx, "account registered", "uid", u.ID)
	return s.mint(u.View())
}

// Login authenticates by name, email or phone. Unknown accounts and wrong
// passwords both yield common.ErrAuthFailed.
func (s *AccountService) Login(ctx context.Context, account, password string) (string, error) {
	u, err := s.store.Users().FindOne(ctx, s.accountLookup(strings.TrimSpace(account)))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(password, auth.DummyHash())
			return "", common.ErrAuthFailed
		}
		return "", err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", common.ErrAuthFailed
	}

	if s.hasher.NeedsUpgrade(u.PasswordHash) {
		s.upgradeHash(ctx, u, password)
	}

	return s.mint(u.View())
}

// upgradeHash re-hashes password with the current parameters. Nothing is
// written once the stored hash differs from u.PasswordHash. Failures are
// logged and otherwise ignored.
func (s *AccountService) upgradeHash(ctx context.Context, u *models.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.store.Users().SwapPasswordHash(ctx, u.ID, u.PasswordHash, hash)
	}
	if err != nil {
		s.log.Warn(ctx, "password hash upgrade failed", "uid", u.ID, "error", err)
		return
	}
	s.log.Info(ctx, "password hash upgraded", "uid", u.ID)
}

// Refresh mints a new token for an already validated identity.
func (s *AccountService) Refresh(_ context.Context, identity models.PublicView) (string, error) {
	return s.mint(identity)
}

// UpdateProfile re-checks originalPassword, applies changes and returns a
// token reflecting the updated profile. A password change invalidates every
// token issued before it.
func (s *AccountService) UpdateProfile(ctx context.Context, identity models.PublicView, originalPassword string, ch ProfileChanges) (string, error) {
	patch, err := s.buildPatch(ch)
	if err != nil {
		return "", err
	}

	var updated *models.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		cur, err := repo.FindByID(ctx, identity.ID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(originalPassword, cur.PasswordHash) {
			return common.ErrWrongPassword
		}

		taken, err := s.identifierTaken(ctx, repo, cur.ID, changedIdentifiers(patch)...)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrUpdateConflict
		}

		if pw, ok := ch.Password.Get(); ok {
			hash, err := s.hasher.Hash(pw)
			if err != nil {
				return fmt.Errorf("%w: %w", common.ErrValidation, err)
			}
			patch.PasswordHash = optional.Of(hash)
		}

		updated, err = repo.Update(ctx, cur.ID, patch)
		if errors.Is(err, common.ErrAlreadyExists) {
			return fmt.Errorf("%w: %w", common.ErrUpdateConflict, err)
		}
		return err
	})
	if err != nil {
		return "", err
	}

	if ch.Password.IsSet() {
		wm := s.registry.MarkChanged(updated.ID, s.now())
		s.log.Info(ctx, "password changed, earlier sessions invalidated", "uid", updated.ID, "watermark", wm)
	}

	return s.mint(updated.View())
}

// DeleteAccount removes the account after re-checking password and
// invalidates every token issued for it.
func (s *AccountService) DeleteAccount(ctx context.Context, identity models.PublicView, password string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		cur, err := repo.FindByID(ctx, identity.ID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(password, cur.PasswordHash) {
			return common.ErrWrongPassword
		}
		return repo.Delete(ctx, cur.ID)
	})
	if err != nil {
		return err
	}

	s.registry.MarkChanged(identity.ID, s.now())
	s.log.Info(ctx, "account deleted", "uid", identity.ID)
	return nil
}

// GetUser returns the public view of the account with the given id.
func (s *AccountService) GetUser(ctx context.Context, id uint64) (models.PublicView, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return models.PublicView{}, err
	}
	return u.View(), nil
}

func (s *AccountService) mint(view models.PublicView) (string, error) {
	tok, err := s.tokens.Mint(view)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	return tok, nil
}

func (s *AccountService) buildPatch(ch ProfileChanges) (models.UserPatch, error) {
	p := models.UserPatch{
		Gender: ch.Gender,
		Age:    ch.Age,
	}
	if v, ok := ch.Name.Get(); ok {
		n, err := normalizeName(v)
		if err != nil {
			return p, err
		}
		p.Name = optional.Of(n)
	}
	if v, ok := ch.Email.Get(); ok {
		e, err := normalizeEmail(v)
		if err != nil {
			return p, err
		}
		p.Email = optional.Of(e)
	}
	if v, ok := ch.Phone.Get(); ok {
		ph, err := s.normalizePhone(v)
		if err != nil {
			return p, err
		}
		p.Phone = optional.Of(ph)
	}
	return p, nil
}

// accountLookup matches account against every login identifier. A value that
// parses as a phone number is compared with stored phones in E.164 form.
func (s *AccountService) accountLookup(account string) users.Lookup {
	l := users.Lookup{Name: account, Email: account, Phone: account}
	if p, err := s.parsePhone(account); err == nil {
		l.Phone = p
	}
	return l
}

// identifierTaken reports whether an account other than self uses any of
// values as its name, email or phone. Login resolves an identifier against all
// three fields, so uniqueness has to hold across them too.
func (s *AccountService) identifierTaken(ctx context.Context, repo users.Repository, self uint64, values ...string) (bool, error) {
	for _, v := range values {
		if v == "" {
			continue
		}
		l := s.accountLookup(v)
		l.ExcludeID = self
		_, err := repo.FindOne(ctx, l)
		switch {
		case err == nil:
			return true, nil
		case !errors.Is(err, common.ErrNotFound):
			return false, err
		}
	}
	return false, nil
}

// changedIdentifiers lists the login identifiers p sets to a non-empty value.
func changedIdentifiers(p models.UserPatch) []string {
	var out []string
	if v, ok := p.Name.Get(); ok {
		out = append(out, v)
	}
	if v, ok := p.Email.Get(); ok {
		out = append(out, deref(v))
	}
	if v, ok := p.Phone.Get(); ok {
		out = append(out, deref(v))
	}
	return out
}

func normalizeName(n string) (string, error) {
	v := strings.TrimSpace(n)
	if v == "" {
		return "", fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	return v, nil
}

func normalizeEmail(e *string) (*string, error) {
	if e == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*e)
	if v == "" || !strings.Contains(v, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", common.ErrValidation, v)
	}
	return &v, nil
}

func (s *AccountService) normalizePhone(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	v, err := s.parsePhone(*p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return &v, nil
}

// parsePhone returns the E.164 form of raw.
func (s *AccountService) parsePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), s.region)
	if err != nil {
		return "", fmt.Errorf("invalid phone %q: %w", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
