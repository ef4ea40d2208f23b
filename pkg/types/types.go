package types

// Version is a release identifier such as "4.10.3".
type Version string

// Channel names the upgrade-recommendation feed an edge came from, e.g. "stable-4.11".
type Channel string

// NoChannel marks the final hop of a Path.
const NoChannel Channel = ""

// Edge is a channel-tagged permission to upgrade From directly to To.
// Edges with the same From and To but a different Via are distinct.
type Edge struct {
	From Version `json:"from"`
	To   Version `json:"to"`
	Via  Channel `json:"via"`
}

// Hop is one visited version and the channel used to leave it.
type Hop struct {
	Version Version `json:"version"`
	Channel Channel `json:"channel,omitempty"`
}

// Path is the ordered list of hops from the start version, terminated by
// a hop on the target version with NoChannel. An empty path means the
// start already is the target.
type Path []Hop

// Steps returns the number of upgrades in the path.
func (p Path) Steps() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Tier is the stability tier part of a channel name.
type Tier string

const (
	TierStable    Tier = "stable"
	TierEUS       Tier = "eus"
	TierFast      Tier = "fast"
	TierCandidate Tier = "candidate"
)
