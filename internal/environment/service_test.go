package environment_test

import (
	"context"
	"log/slog"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/vault-environment/internal/environment"
	"github.com/angeloszaimis/vault-environment/internal/state"
)

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		store    *state.MemoryStore
		managed  *fakeManaged
		reporter *fakeReporter
		service  *environment.Service
		example  environment.URLData
	)

	BeforeEach(func() {
		ctx = context.Background()
		log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		store = state.NewMemoryStore()
		managed = &fakeManaged{}
		reporter = &fakeReporter{}
		resolver := environment.NewResolver(log, store, store, managed, reporter)
		service = environment.NewService(log, resolver, store, reporter)

		example = environment.URLData{Base: "https://example.com"}
	})

	expectExampleURLs := func() {
		Expect(service.APIURL()).To(Equal("https://example.com/api"))
		Expect(service.BaseURL()).To(Equal("https://example.com"))
		Expect(service.ChangeEmailURL()).To(Equal("https://example.com/#/settings/account"))
		Expect(service.EventsURL()).To(Equal("https://example.com/events"))
		Expect(service.IconsURL()).To(Equal("https://example.com/icons"))
		Expect(service.IdentityURL()).To(Equal("https://example.com/identity"))
		Expect(service.ImportItemsURL()).To(Equal("https://example.com/#/tools/import"))
		Expect(service.RecoveryCodeURL()).To(Equal("https://example.com/#/recover-2fa"))
		Expect(service.Region()).To(Equal(environment.SelfHosted))
		Expect(service.SendShareURL()).To(Equal("https://example.com/#/send"))
		Expect(service.SettingsURL()).To(Equal("https://example.com/#/settings"))
		Expect(service.SetUpTwoFactorURL()).To(Equal("https://example.com/#/settings/security/two-factor"))
		Expect(service.WebVaultURL()).To(Equal("https://example.com"))
	}

	expectUSURLs := func() {
		Expect(service.APIURL()).To(Equal("https://api.bitwarden.com"))
		Expect(service.BaseURL()).To(Equal("https://vault.bitwarden.com"))
		Expect(service.ChangeEmailURL()).To(Equal("https://vault.bitwarden.com/#/settings/account"))
		Expect(service.EventsURL()).To(Equal("https://events.bitwarden.com"))
		Expect(service.IconsURL()).To(Equal("https://icons.bitwarden.net"))
		Expect(service.IdentityURL()).To(Equal("https://identity.bitwarden.com"))
		Expect(service.ImportItemsURL()).To(Equal("https://vault.bitwarden.com/#/tools/import"))
		Expect(service.RecoveryCodeURL()).To(Equal("https://vault.bitwarden.com/#/recover-2fa"))
		Expect(service.Region()).To(Equal(environment.UnitedStates))
		Expect(service.SendShareURL()).To(Equal("https://send.bitwarden.com/#"))
		Expect(service.SettingsURL()).To(Equal("https://vault.bitwarden.com/#/settings"))
		Expect(service.SetUpTwoFactorURL()).To(Equal("https://vault.bitwarden.com/#/settings/security/two-factor"))
		Expect(service.WebVaultURL()).To(Equal("https://vault.bitwarden.com"))
	}

	preAuth := func() environment.URLData {
		urls, ok, err := store.PreAuthURLs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		return urls
	}

	It("should return the US urls before anything is loaded", func() {
		Expect(service.Current()).To(Equal(environment.DefaultUS))
		expectUSURLs()
	})

	Describe("LoadActiveEndpoints", func() {
		It("should load the urls of the active account", func() {
			Expect(store.SetActiveAccount(ctx, "user-1", example)).To(Succeed())

			urls := service.LoadActiveEndpoints(ctx)

			Expect(urls).To(Equal(example))
			expectExampleURLs()

			report, ok := reporter.last()
			Expect(ok).To(BeTrue())
			Expect(report.region.String()).To(Equal("Self-Hosted"))
			Expect(report.isPreAuth).To(BeFalse())
		})

		It("should load EU urls", func() {
			Expect(store.SetActiveAccount(ctx, "user-1", environment.DefaultEU)).To(Succeed())

			service.LoadActiveEndpoints(ctx)

			Expect(service.APIURL()).To(Equal("https://api.bitwarden.eu"))
			Expect(service.IconsURL()).To(Equal("https://icons.bitwarden.eu"))
			Expect(service.SendShareURL()).To(Equal("https://vault.bitwarden.eu/#/send"))
			Expect(service.Region()).To(Equal(environment.Europe))

			report, _ := reporter.last()
			Expect(report.region.String()).To(Equal("EU"))
			Expect(report.isPreAuth).To(BeFalse())
		})

		It("should load the managed config urls", func() {
			managed.baseURL = "https://vault.example.com"

			service.LoadActiveEndpoints(ctx)

			managedURLs, err := environment.NewURLData("https://vault.example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Current()).To(Equal(managedURLs))
			Expect(service.APIURL()).To(Equal("https://vault.example.com/api"))
			Expect(service.SendShareURL()).To(Equal("https://vault.example.com/#/send"))
			Expect(service.Region()).To(Equal(environment.SelfHosted))
			Expect(preAuth()).To(Equal(managedURLs))
		})

		It("should keep the account urls but remember managed config for pre-auth", func() {
			Expect(store.SetActiveAccount(ctx, "user-1", environment.DefaultUS)).To(Succeed())
			managed.baseURL = "https://vault.example.com"

			service.LoadActiveEndpoints(ctx)

			expectUSURLs()
			Expect(preAuth()).To(Equal(environment.URLData{Base: "https://vault.example.com"}))
		})

		It("should load the default urls with no account and no pre-auth urls", func() {
			urls := service.LoadActiveEndpoints(ctx)

			Expect(urls).To(Equal(environment.DefaultUS))
			expectUSURLs()
			Expect(preAuth()).To(Equal(environment.DefaultUS))

			report, _ := reporter.last()
			Expect(report.region.String()).To(Equal("US"))
			Expect(report.isPreAuth).To(BeFalse())
		})

		It("should load the pre-auth urls with no account", func() {
			Expect(store.SetPreAuthURLs(ctx, example)).To(Succeed())

			service.LoadActiveEndpoints(ctx)

			expectExampleURLs()
			Expect(preAuth()).To(Equal(example))

			report, _ := reporter.last()
			Expect(report.region.String()).To(Equal("Self-Hosted"))
			Expect(report.isPreAuth).To(BeFalse())
		})

		It("should be idempotent", func() {
			Expect(store.SetPreAuthURLs(ctx, example)).To(Succeed())

			first := service.LoadActiveEndpoints(ctx)
			second := service.LoadActiveEndpoints(ctx)

			Expect(first).To(Equal(second))
			Expect(preAuth()).To(Equal(example))
		})

		It("should follow sign out back to the pre-auth urls", func() {
			managed.baseURL = "https://vault.example.com"
			Expect(store.SetActiveAccount(ctx, "user-1", environment.DefaultEU)).To(Succeed())
			service.LoadActiveEndpoints(ctx)
			Expect(service.Region()).To(Equal(environment.Europe))

			Expect(store.SignOut(ctx)).To(Succeed())
			managed.baseURL = ""
			service.LoadActiveEndpoints(ctx)

			Expect(service.BaseURL()).To(Equal("https://vault.example.com"))
		})
	})

	Describe("SetPreAuthURLs", func() {
		It("should set the pre-auth urls", func() {
			Expect(service.SetPreAuthURLs(ctx, example)).To(Succeed())

			expectExampleURLs()
			Expect(preAuth()).To(Equal(example))

			report, ok := reporter.last()
			Expect(ok).To(BeTrue())
			Expect(report.region.String()).To(Equal("Self-Hosted"))
			Expect(report.isPreAuth).To(BeTrue())
		})

		It("should overwrite an earlier pre-auth value", func() {
			Expect(service.SetPreAuthURLs(ctx, environment.DefaultEU)).To(Succeed())
			Expect(service.SetPreAuthURLs(ctx, example)).To(Succeed())

			Expect(service.Current()).To(Equal(example))
			Expect(preAuth()).To(Equal(example))
		})

		It("should report the classified region", func() {
			Expect(service.SetPreAuthURLs(ctx, environment.DefaultEU)).To(Succeed())

			report, _ := reporter.last()
			Expect(report.region).To(Equal(environment.Europe))
			Expect(report.isPreAuth).To(BeTrue())
		})

		It("should reject invalid urls and keep the current environment", func() {
			Expect(service.SetPreAuthURLs(ctx, example)).To(Succeed())
			reports := len(reporter.reports)

			err := service.SetPreAuthURLs(ctx, environment.URLData{Base: "example.com"})

			Expect(err).To(MatchError(environment.ErrInvalidURL))
			Expect(service.Current()).To(Equal(example))
			Expect(preAuth()).To(Equal(example))
			Expect(reporter.reports).To(HaveLen(reports))
		})

		It("should succeed when the store cannot be written", func() {
			log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}))
			resolver := environment.NewResolver(log, brokenStore{}, brokenStore{}, managed, reporter)
			service = environment.NewService(log, resolver, brokenStore{}, reporter)

			Expect(service.SetPreAuthURLs(ctx, example)).To(Succeed())
			Expect(service.Current()).To(Equal(example))
		})
	})

	Describe("concurrent use", func() {
		It("should always publish one coherent environment", func() {
			Expect(store.SetPreAuthURLs(ctx, environment.DefaultEU)).To(Succeed())

			const workers = 20
			var wg sync.WaitGroup
			wg.Add(workers * 3)

			for i := 0; i < workers; i++ {
				go func() {
					defer wg.Done()
					service.LoadActiveEndpoints(ctx)
				}()
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					Expect(service.SetPreAuthURLs(ctx, example)).To(Succeed())
				}()
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					current := service.Current()
					Expect(current).To(BeElementOf(environment.DefaultUS, environment.DefaultEU, example))
				}()
			}

			wg.Wait()

			Expect(service.Current()).To(BeElementOf(environment.DefaultEU, example))
			Expect(service.Current()).To(Equal(preAuth()))
		})
	})
})
