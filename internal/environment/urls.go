package environment

import (
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	USVaultURL = "https://vault.bitwarden.com"
	EUVaultURL = "https://vault.bitwarden.eu"

	usSendShareURL = "https://send.bitwarden.com/#"
)

// URLData is the base URL of a deployment plus optional per-service
// overrides. An empty field means "derive from Base".
type URLData struct {
	Base           string `json:"base" yaml:"base" mapstructure:"base"`
	API            string `json:"api,omitempty" yaml:"api,omitempty" mapstructure:"api"`
	Identity       string `json:"identity,omitempty" yaml:"identity,omitempty" mapstructure:"identity"`
	Icons          string `json:"icons,omitempty" yaml:"icons,omitempty" mapstructure:"icons"`
	Events         string `json:"events,omitempty" yaml:"events,omitempty" mapstructure:"events"`
	WebVault       string `json:"webVault,omitempty" yaml:"webVault,omitempty" mapstructure:"webVault"`
	SendShare      string `json:"sendShare,omitempty" yaml:"sendShare,omitempty" mapstructure:"sendShare"`
	ChangeEmail    string `json:"changeEmail,omitempty" yaml:"changeEmail,omitempty" mapstructure:"changeEmail"`
	ImportItems    string `json:"importItems,omitempty" yaml:"importItems,omitempty" mapstructure:"importItems"`
	RecoveryCode   string `json:"recoveryCode,omitempty" yaml:"recoveryCode,omitempty" mapstructure:"recoveryCode"`
	SetUpTwoFactor string `json:"setUpTwoFactor,omitempty" yaml:"setUpTwoFactor,omitempty" mapstructure:"setUpTwoFactor"`
	Settings       string `json:"settings,omitempty" yaml:"settings,omitempty" mapstructure:"settings"`
}

// DefaultUS is the US cloud. Icons live on bitwarden.net and Send links use
// the dedicated send host; both are fixed values, not derived.
var DefaultUS = URLData{
	Base:      USVaultURL,
	API:       "https://api.bitwarden.com",
	Identity:  "https://identity.bitwarden.com",
	Icons:     "https://icons.bitwarden.net",
	Events:    "https://events.bitwarden.com",
	SendShare: usSendShareURL,
}

// DefaultEU is the EU cloud.
var DefaultEU = URLData{
	Base:      EUVaultURL,
	API:       "https://api.bitwarden.eu",
	Identity:  "https://identity.bitwarden.eu",
	Icons:     "https://icons.bitwarden.eu",
	Events:    "https://events.bitwarden.eu",
	SendShare: "https://vault.bitwarden.eu/#/send",
}

// NewURLData builds a URLData with no overrides. It fails with
// ErrInvalidURL when base is not an absolute http(s) URL.
func NewURLData(base string) (URLData, error) {
	d := URLData{Base: strings.TrimSpace(base)}
	if err := d.Validate(); err != nil {
		return URLData{}, err
	}
	return d, nil
}

// Validate checks the base URL and every override that is set.
func (d URLData) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Base, validation.Required, validation.By(validateEnvironmentURL), validation.By(validateBaseURL)),
		validation.Field(&d.API, validation.By(validateEnvironmentURL)),
		validation.Field(&d.Identity, validation.By(validateEnvironmentURL)),
		validation.Field(&d.Icons, validation.By(validateEnvironmentURL)),
		validation.Field(&d.Events, validation.By(validateEnvironmentURL)),
		validation.Field(&d.WebVault, validation.By(validateEnvironmentURL)),
		validation.Field(&d.SendShare, validation.By(validateEnvironmentURL)),
		validation.Field(&d.ChangeEmail, validation.By(validateEnvironmentURL)),
		validation.Field(&d.ImportItems, validation.By(validateEnvironmentURL)),
		validation.Field(&d.RecoveryCode, validation.By(validateEnvironmentURL)),
		validation.Field(&d.SetUpTwoFactor, validation.By(validateEnvironmentURL)),
		validation.Field(&d.Settings, validation.By(validateEnvironmentURL)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return nil
}

// Equal reports whether both values hold the same base and overrides.
func (d URLData) Equal(other URLData) bool {
	return d == other
}

// IsZero reports whether no base URL has been set.
func (d URLData) IsZero() bool {
	return d == URLData{}
}

func (d URLData) BaseURL() string {
	return d.root()
}

func (d URLData) APIURL() string {
	return d.orPath(d.API, "api")
}

func (d URLData) IdentityURL() string {
	return d.orPath(d.Identity, "identity")
}

func (d URLData) IconsURL() string {
	return d.orPath(d.Icons, "icons")
}

func (d URLData) EventsURL() string {
	return d.orPath(d.Events, "events")
}

func (d URLData) WebVaultURL() string {
	if d.WebVault != "" {
		return d.WebVault
	}
	return d.root()
}

func (d URLData) SettingsURL() string {
	return d.orFragment(d.Settings, "/settings")
}

func (d URLData) ChangeEmailURL() string {
	return d.orFragment(d.ChangeEmail, "/settings/account")
}

func (d URLData) SetUpTwoFactorURL() string {
	return d.orFragment(d.SetUpTwoFactor, "/settings/security/two-factor")
}

func (d URLData) ImportItemsURL() string {
	return d.orFragment(d.ImportItems, "/tools/import")
}

func (d URLData) RecoveryCodeURL() string {
	return d.orFragment(d.RecoveryCode, "/recover-2fa")
}

// SendShareURL is the prefix for shared Send links. The US cloud serves
// them from its own host with a bare fragment.
func (d URLData) SendShareURL() string {
	if d.SendShare != "" {
		return d.SendShare
	}
	if d.root() == USVaultURL {
		return usSendShareURL
	}
	return d.root() + "/#/send"
}

// Region classifies the base URL.
func (d URLData) Region() Region {
	return RegionFor(d)
}

func (d URLData) root() string {
	return strings.TrimRight(d.Base, "/")
}

func (d URLData) orPath(override, segment string) string {
	if override != "" {
		return override
	}
	return d.root() + "/" + segment
}

func (d URLData) orFragment(override, route string) string {
	if override != "" {
		return override
	}
	return d.root() + "/#" + route
}

// Endpoints is every URL of a URLData after derivation.
type Endpoints struct {
	Base           string `json:"base"`
	API            string `json:"api"`
	Identity       string `json:"identity"`
	Icons          string `json:"icons"`
	Events         string `json:"events"`
	WebVault       string `json:"webVault"`
	SendShare      string `json:"sendShare"`
	ChangeEmail    string `json:"changeEmail"`
	ImportItems    string `json:"importItems"`
	RecoveryCode   string `json:"recoveryCode"`
	SetUpTwoFactor string `json:"setUpTwoFactor"`
	Settings       string `json:"settings"`
	Region         string `json:"region"`
}

func (d URLData) Endpoints() Endpoints {
	return Endpoints{
		Base:           d.BaseURL(),
		API:            d.APIURL(),
		Identity:       d.IdentityURL(),
		Icons:          d.IconsURL(),
		Events:         d.EventsURL(),
		WebVault:       d.WebVaultURL(),
		SendShare:      d.SendShareURL(),
		ChangeEmail:    d.ChangeEmailURL(),
		ImportItems:    d.ImportItemsURL(),
		RecoveryCode:   d.RecoveryCodeURL(),
		SetUpTwoFactor: d.SetUpTwoFactorURL(),
		Settings:       d.SettingsURL(),
		Region:         d.Region().String(),
	}
}

func validateEnvironmentURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if raw == "" {
		return nil
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// validateBaseURL rejects parts that would end up in the middle of a
// derived URL.
func validateBaseURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if raw == "" {
		return nil
	}

	if strings.ContainsAny(raw, "?#") {
		return validation.NewError("validation_base_query_fragment", "base URL must not have a query or fragment")
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.User != nil {
		return validation.NewError("validation_base_userinfo", "base URL must not carry credentials")
	}

	return nil
}
