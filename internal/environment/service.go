package environment

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Service owns the environment the process is currently using.
//
// Writers are serialised so the published value always comes from the
// operation that finished last. Readers load an atomic pointer and never
// wait on a writer.
type Service struct {
	mutex    sync.Mutex
	current  atomic.Pointer[URLData]
	resolver *Resolver
	store    PreAuthStore
	reporter RegionReporter
	logger   *slog.Logger
}

func NewService(logger *slog.Logger, resolver *Resolver, store PreAuthStore, reporter RegionReporter) *Service {
	s := &Service{
		resolver: resolver,
		store:    store,
		reporter: reporter,
		logger:   logger,
	}

	initial := DefaultUS
	s.current.Store(&initial)

	return s
}

// Current returns the active environment. Before the first load this is
// DefaultUS.
func (s *Service) Current() URLData {
	return *s.current.Load()
}

// LoadActiveEndpoints resolves the environment from the configured sources
// and makes it the active one.
func (s *Service) LoadActiveEndpoints(ctx context.Context) URLData {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res := s.resolver.Resolve(ctx)
	s.publish(res.URLs)

	s.logger.Info("Loaded environment",
		slog.String("source", string(res.Source)),
		slog.String("base", res.URLs.BaseURL()),
		slog.String("region", res.Region.String()))

	return res.URLs
}

// SetPreAuthURLs activates urls and remembers them as the pre-auth
// environment. Invalid urls are rejected with ErrInvalidURL and leave the
// active environment unchanged.
func (s *Service) SetPreAuthURLs(ctx context.Context, urls URLData) error {
	if err := urls.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.publish(urls)

	if err := s.store.SetPreAuthURLs(ctx, urls); err != nil {
		s.logger.Warn("Failed to store pre-auth environment",
			slog.String("base", urls.BaseURL()),
			slog.Any("err", err))
	}

	region := RegionFor(urls)
	s.reporter.SetRegion(region, true)

	s.logger.Info("Set pre-auth environment",
		slog.String("source", string(SourceExplicit)),
		slog.String("base", urls.BaseURL()),
		slog.String("region", region.String()))

	return nil
}

func (s *Service) publish(urls URLData) {
	s.current.Store(&urls)
}

func (s *Service) APIURL() string            { return s.Current().APIURL() }
func (s *Service) BaseURL() string           { return s.Current().BaseURL() }
func (s *Service) ChangeEmailURL() string    { return s.Current().ChangeEmailURL() }
func (s *Service) EventsURL() string         { return s.Current().EventsURL() }
func (s *Service) IconsURL() string          { return s.Current().IconsURL() }
func (s *Service) IdentityURL() string       { return s.Current().IdentityURL() }
func (s *Service) ImportItemsURL() string    { return s.Current().ImportItemsURL() }
func (s *Service) RecoveryCodeURL() string   { return s.Current().RecoveryCodeURL() }
func (s *Service) Region() Region            { return s.Current().Region() }
func (s *Service) SendShareURL() string      { return s.Current().SendShareURL() }
func (s *Service) SettingsURL() string       { return s.Current().SettingsURL() }
func (s *Service) SetUpTwoFactorURL() string { return s.Current().SetUpTwoFactorURL() }
func (s *Service) WebVaultURL() string       { return s.Current().WebVaultURL() }
