package environment

import "strings"

type Region int

const (
	UnitedStates Region = iota
	Europe
	SelfHosted
)

// RegionFor maps a URLData to the region it belongs to. Only the two
// canonical cloud vaults are recognised; anything else is self-hosted.
func RegionFor(d URLData) Region {
	switch strings.TrimRight(d.Base, "/") {
	case USVaultURL:
		return UnitedStates
	case EUVaultURL:
		return Europe
	default:
		return SelfHosted
	}
}

// String returns the label reported to diagnostics.
func (r Region) String() string {
	switch r {
	case UnitedStates:
		return "US"
	case Europe:
		return "EU"
	case SelfHosted:
		return "Self-Hosted"
	default:
		return "UNKNOWN"
	}
}
