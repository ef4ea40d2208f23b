// Package channels derives the update channels to query for an upgrade.
package channels

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/adfinis/ocp-upgrade-path/pkg/types"
)

// Release is the major.minor part of a version.
type Release struct {
	Major uint64
	Minor uint64
}

func (r Release) String() string {
	return fmt.Sprintf("%d.%d", r.Major, r.Minor)
}

// MinorOf returns the major.minor release a version belongs to.
// Both full versions ("4.10.3") and bare releases ("4.10") are accepted.
func MinorOf(v types.Version) (Release, error) {
	sv, err := semver.NewVersion(string(v))
	if err != nil {
		return Release{}, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return Release{Major: sv.Major(), Minor: sv.Minor()}, nil
}

// IsMajorMinor reports whether v names a release rather than a version,
// i.e. it has exactly two dot-separated parts.
func IsMajorMinor(v types.Version) bool {
	return len(strings.Split(string(v), ".")) == 2
}

// Name builds a channel name such as "stable-4.11".
func Name(tier types.Tier, r Release) types.Channel {
	return types.Channel(fmt.Sprintf("%s-%s", tier, r))
}

// Tiers returns the tiers to query, from most to least conservative:
// stable (always), eus, fast, candidate. A bare target release resolves
// against the last of them.
func Tiers(fast, eus, candidate bool) []types.Tier {
	tiers := []types.Tier{types.TierStable}
	if eus {
		tiers = append(tiers, types.TierEUS)
	}
	if fast {
		tiers = append(tiers, types.TierFast)
	}
	if candidate {
		tiers = append(tiers, types.TierCandidate)
	}
	return tiers
}

// ForRange lists every channel of every tier for all minors between the
// releases of from and to, inclusive. Channels are grouped by tier in the
// given order, ascending by minor within a tier. EUS channels only exist
// for even minors and are skipped for odd ones. A target release older
// than the current one yields an empty list.
func ForRange(from, to types.Version, tiers []types.Tier) ([]types.Channel, error) {
	start, err := MinorOf(from)
	if err != nil {
		return nil, err
	}
	end, err := MinorOf(to)
	if err != nil {
		return nil, err
	}
	if start.Major != end.Major {
		return nil, fmt.Errorf("cannot upgrade across major releases (%s to %s)", start, end)
	}
	// A downgrade queries nothing; the search then reports no path.
	list := []types.Channel{}
	if end.Minor < start.Minor {
		return list, nil
	}

	for _, tier := range tiers {
		for m := start.Minor; m <= end.Minor; m++ {
			if tier == types.TierEUS && m%2 != 0 {
				continue
			}
			list = append(list, Name(tier, Release{Major: start.Major, Minor: m}))
		}
	}
	return list, nil
}
