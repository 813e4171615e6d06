// Package local is an in-process identity provider used for development runs
// and tests. It keeps accounts in memory with bcrypt password hashes and
// speaks the same failure vocabulary as the real provider.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"authgate/internal/identity"
	"authgate/pkg/platform/sentinel"
)

const minPasswordLength = 6

// federatedEmail is the single account the fake federated flow resolves to.
const federatedEmail = "google-user@authgate.local"

type account struct {
	id           string
	email        string
	passwordHash []byte
}

// Provider implements identity.Provider against process memory. Safe for
// concurrent use.
type Provider struct {
	mu       sync.RWMutex
	accounts map[string]account
	sessions map[string]struct{}

	// dummyHash is compared against when the account does not exist so the
	// not-found and wrong-password paths cost the same.
	dummyHash []byte
}

func NewProvider() *Provider {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on invalid cost, which is hardcoded.
		panic(fmt.Sprintf("local provider: dummy hash: %v", err))
	}
	return &Provider{
		accounts:  make(map[string]account),
		sessions:  make(map[string]struct{}),
		dummyHash: dummy,
	}
}

func (p *Provider) Register(ctx context.Context, email, password string) (identity.Identity, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return identity.Identity{}, identity.NewProviderError(identity.FailureInvalidEmail, "email address is malformed")
	}
	if len(password) < minPasswordLength {
		return identity.Identity{}, identity.NewProviderError(identity.FailureWeakPassword,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Identity{}, identity.WrapProviderError(err, identity.FailureUnavailable, "hash password")
	}

	acc, err := p.create(email, hash)
	if errors.Is(err, sentinel.ErrConflict) {
		return identity.Identity{}, identity.NewProviderError(identity.FailureEmailInUse, "email address is already in use")
	}
	if err != nil {
		return identity.Identity{}, identity.WrapProviderError(err, identity.FailureUnavailable, "store account")
	}

	return identity.Identity{UserID: acc.id}, nil
}

func (p *Provider) AuthenticatePassword(ctx context.Context, email, password string) (identity.Identity, error) {
	acc, err := p.lookup(email)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Burn the same bcrypt cost as the found path before answering.
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
		return identity.Identity{}, identity.NewProviderError(identity.FailureUserNotFound, "no account for this email")
	}
	if err != nil {
		return identity.Identity{}, identity.WrapProviderError(err, identity.FailureUnavailable, "look up account")
	}

	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return identity.Identity{}, identity.NewProviderError(identity.FailureWrongPassword, "password does not match")
	}

	p.startSession(acc.id)
	return identity.Identity{UserID: acc.id}, nil
}

func (p *Provider) AuthenticateFederated(ctx context.Context) (identity.Identity, error) {
	acc, err := p.lookup(federatedEmail)
	if errors.Is(err, sentinel.ErrNotFound) {
		acc, err = p.create(federatedEmail, nil)
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race to another federated sign-in; the account exists now.
			acc, err = p.lookup(federatedEmail)
		}
	}
	if err != nil {
		return identity.Identity{}, identity.WrapProviderError(err, identity.FailureUnavailable, "resolve federated account")
	}

	p.startSession(acc.id)
	return identity.Identity{UserID: acc.id}, nil
}

func (p *Provider) RevokeSession(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, userID)
	return nil
}

// HasSession reports whether a provider-side session exists for the user.
// Test helper.
func (p *Provider) HasSession(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.sessions[userID]
	return ok
}

func (p *Provider) create(email string, hash []byte) (account, error) {
	key := normalize(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[key]; exists {
		return account{}, sentinel.ErrConflict
	}

	acc := account{id: uuid.NewString(), email: email, passwordHash: hash}
	p.accounts[key] = acc
	return acc, nil
}

func (p *Provider) lookup(email string) (account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	acc, ok := p.accounts[normalize(email)]
	if !ok {
		return account{}, sentinel.ErrNotFound
	}
	return acc, nil
}

func (p *Provider) startSession(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[userID] = struct{}{}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ identity.Provider = (*Provider)(nil)
