// Package shortest finds minimum-hop upgrade paths in a merged channel graph.
package shortest

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/adfinis/ocp-upgrade-path/pkg/graph"
	"github.com/adfinis/ocp-upgrade-path/pkg/types"
)

// tierRank orders channels from most to least conservative when several
// edges reach the same version at the same distance.
var tierRank = map[types.Tier]int{
	types.TierStable:    0,
	types.TierEUS:       1,
	types.TierFast:      2,
	types.TierCandidate: 3,
}

// Path returns a minimum-hop path from start to target. The second
// return value is false when target is unreachable; that is a regular
// outcome, not an error. When start equals target the path is empty.
//
// Every edge weighs 1. The search keeps Dijkstra's structure: the closest
// unfinalized version is selected by a linear scan, finalized once and its
// edges relaxed. A relaxation only replaces a recorded path when it is
// strictly shorter, so the first edge to reach a version at a given
// distance keeps it.
func Path(g *graph.Graph, start, target types.Version) (types.Path, bool) {
	if start == target {
		return types.Path{}, true
	}

	dist := map[types.Version]int{start: 0}
	prefix := map[types.Version]types.Path{start: {}}
	done := make(map[types.Version]bool)

	for {
		current, ok := closest(dist, done)
		if !ok {
			break
		}
		done[current] = true

		for _, e := range relaxOrder(g.Edges(current)) {
			weight := dist[current] + 1
			if d, seen := dist[e.To]; seen && weight >= d {
				continue
			}
			dist[e.To] = weight
			p := make(types.Path, 0, len(prefix[current])+1)
			p = append(p, prefix[current]...)
			prefix[e.To] = append(p, types.Hop{Version: current, Channel: e.Via})
		}
	}

	p, ok := prefix[target]
	if !ok {
		return nil, false
	}
	return append(p, types.Hop{Version: target, Channel: types.NoChannel}), true
}

// closest picks the unfinalized version with the smallest known distance.
// Ties go to the lowest version.
func closest(dist map[types.Version]int, done map[types.Version]bool) (types.Version, bool) {
	var (
		best  types.Version
		found bool
	)
	for v, d := range dist {
		if done[v] {
			continue
		}
		if !found || d < dist[best] || (d == dist[best] && versionLess(v, best)) {
			best, found = v, true
		}
	}
	return best, found
}

// relaxOrder sorts edges so that conservative channels are tried first.
func relaxOrder(edges []types.Edge) []types.Edge {
	sort.SliceStable(edges, func(i, j int) bool {
		ri, rj := channelRank(edges[i].Via), channelRank(edges[j].Via)
		if ri != rj {
			return ri < rj
		}
		if edges[i].Via != edges[j].Via {
			return edges[i].Via < edges[j].Via
		}
		return versionLess(edges[i].To, edges[j].To)
	})
	return edges
}

func channelRank(c types.Channel) int {
	tier, _, _ := strings.Cut(string(c), "-")
	if r, ok := tierRank[types.Tier(tier)]; ok {
		return r
	}
	return len(tierRank)
}

// versionLess orders by semantic version, falling back to string order
// when either side does not parse.
func versionLess(a, b types.Version) bool {
	va, errA := semver.NewVersion(string(a))
	vb, errB := semver.NewVersion(string(b))
	if errA != nil || errB != nil {
		return a < b
	}
	if va.Equal(vb) {
		return a < b
	}
	return va.LessThan(vb)
}
