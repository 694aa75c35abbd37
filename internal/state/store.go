package state

import (
	"context"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

// Store is the settings storage the environment service reads accounts and
// the pre-auth environment from.
type Store interface {
	environment.AccountProvider
	environment.PreAuthStore

	// SetActiveAccount signs userID in and records the environment the
	// account belongs to.
	SetActiveAccount(ctx context.Context, userID string, urls environment.URLData) error
	// SignOut clears the active account. Stored account environments are kept.
	SignOut(ctx context.Context) error
	Close() error
}

// document is the persisted shape of the memory and file stores. The Redis
// store keeps each value under its own key instead.
type document struct {
	ActiveUserID string                         `json:"activeUserId,omitempty" yaml:"activeUserId,omitempty"`
	PreAuth      *environment.URLData           `json:"preAuthEnvironmentUrls,omitempty" yaml:"preAuthEnvironmentUrls,omitempty"`
	Accounts     map[string]environment.URLData `json:"accounts,omitempty" yaml:"accounts,omitempty"`
}
