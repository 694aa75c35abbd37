package environment

import (
	"context"
	"log/slog"
)

// AccountProvider exposes the signed-in account and the environment it
// was created against.
type AccountProvider interface {
	// ActiveUserID returns "" when nobody is signed in.
	ActiveUserID(ctx context.Context) (string, error)
	EnvironmentURLs(ctx context.Context, userID string) (URLData, bool, error)
}

// PreAuthStore persists the environment chosen before anyone signs in.
type PreAuthStore interface {
	PreAuthURLs(ctx context.Context) (URLData, bool, error)
	SetPreAuthURLs(ctx context.Context, urls URLData) error
}

// ManagedConfigProvider reads the administrator supplied base URL.
type ManagedConfigProvider interface {
	ManagedBaseURL() (string, bool)
}

// RegionReporter receives the region of every activated environment.
type RegionReporter interface {
	SetRegion(region Region, isPreAuth bool)
}

type Source string

const (
	SourceManaged  Source = "managed"
	SourceAccount  Source = "account"
	SourcePreAuth  Source = "pre_auth"
	SourceDefault  Source = "default"
	SourceExplicit Source = "explicit"
)

// Resolution is the outcome of a single resolve pass.
type Resolution struct {
	URLs   URLData
	Region Region
	Source Source
}

type Resolver struct {
	accounts AccountProvider
	store    PreAuthStore
	managed  ManagedConfigProvider
	reporter RegionReporter
	logger   *slog.Logger
}

func NewResolver(
	logger *slog.Logger,
	accounts AccountProvider,
	store PreAuthStore,
	managed ManagedConfigProvider,
	reporter RegionReporter,
) *Resolver {
	return &Resolver{
		accounts: accounts,
		store:    store,
		managed:  managed,
		reporter: reporter,
		logger:   logger,
	}
}

// Resolve walks managed configuration, the active account, the pre-auth
// cache and DefaultUS in that order and returns the first match. It always
// succeeds: unreadable or malformed sources are skipped.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	res := r.resolve(ctx)
	res.Region = RegionFor(res.URLs)

	r.reporter.SetRegion(res.Region, false)

	r.logger.Debug("Resolved environment",
		slog.String("source", string(res.Source)),
		slog.String("base", res.URLs.BaseURL()),
		slog.String("region", res.Region.String()))

	return res
}

func (r *Resolver) resolve(ctx context.Context) Resolution {
	managed, hasManaged := r.managedURLs()
	userID := r.activeUserID(ctx)

	if hasManaged && userID == "" {
		r.rememberPreAuth(ctx, managed)
		return Resolution{URLs: managed, Source: SourceManaged}
	}

	if userID != "" {
		// The managed value does not apply to a signed-in session, but it
		// becomes the pre-auth choice once the user signs out.
		if hasManaged {
			r.rememberPreAuth(ctx, managed)
		}

		if urls, ok := r.accountURLs(ctx, userID); ok {
			return Resolution{URLs: urls, Source: SourceAccount}
		}

		if hasManaged {
			return Resolution{URLs: managed, Source: SourcePreAuth}
		}
	}

	if urls, ok := r.preAuthURLs(ctx); ok {
		return Resolution{URLs: urls, Source: SourcePreAuth}
	}

	r.rememberPreAuth(ctx, DefaultUS)
	return Resolution{URLs: DefaultUS, Source: SourceDefault}
}

func (r *Resolver) managedURLs() (URLData, bool) {
	if r.managed == nil {
		return URLData{}, false
	}

	raw, ok := r.managed.ManagedBaseURL()
	if !ok || raw == "" {
		return URLData{}, false
	}

	urls, err := NewURLData(raw)
	if err != nil {
		r.logger.Warn("Ignoring managed environment url",
			slog.String("url", raw),
			slog.Any("err", err))
		return URLData{}, false
	}

	return urls, true
}

func (r *Resolver) activeUserID(ctx context.Context) string {
	if r.accounts == nil {
		return ""
	}

	userID, err := r.accounts.ActiveUserID(ctx)
	if err != nil {
		r.logger.Warn("Failed to read active account", slog.Any("err", err))
		return ""
	}

	return userID
}

func (r *Resolver) accountURLs(ctx context.Context, userID string) (URLData, bool) {
	urls, ok, err := r.accounts.EnvironmentURLs(ctx, userID)
	if err != nil {
		r.logger.Warn("Failed to read account environment",
			slog.String("user_id", userID),
			slog.Any("err", err))
		return URLData{}, false
	}

	if !ok {
		return URLData{}, false
	}

	if err := urls.Validate(); err != nil {
		r.logger.Warn("Ignoring stored account environment",
			slog.String("user_id", userID),
			slog.Any("err", err))
		return URLData{}, false
	}

	return urls, true
}

func (r *Resolver) preAuthURLs(ctx context.Context) (URLData, bool) {
	urls, ok, err := r.store.PreAuthURLs(ctx)
	if err != nil {
		r.logger.Warn("Failed to read pre-auth environment", slog.Any("err", err))
		return URLData{}, false
	}

	if !ok {
		return URLData{}, false
	}

	if err := urls.Validate(); err != nil {
		r.logger.Warn("Ignoring stored pre-auth environment", slog.Any("err", err))
		return URLData{}, false
	}

	return urls, true
}

func (r *Resolver) rememberPreAuth(ctx context.Context, urls URLData) {
	if err := r.store.SetPreAuthURLs(ctx, urls); err != nil {
		r.logger.Warn("Failed to store pre-auth environment",
			slog.String("base", urls.BaseURL()),
			slog.Any("err", err))
	}
}
