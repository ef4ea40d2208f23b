// Package upgrade ties channel derivation, graph fetching, merging and the
// shortest path search together into an upgrade plan.
package upgrade

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/adfinis/ocp-upgrade-path/pkg/channels"
	"github.com/adfinis/ocp-upgrade-path/pkg/cincinnati"
	"github.com/adfinis/ocp-upgrade-path/pkg/graph"
	"github.com/adfinis/ocp-upgrade-path/pkg/shortest"
	"github.com/adfinis/ocp-upgrade-path/pkg/types"
)

// Fetcher retrieves the graph of a single channel.
type Fetcher interface {
	Fetch(ctx context.Context, channel types.Channel, arch string) (*cincinnati.ChannelGraph, error)
}

// Request describes the upgrade to plan.
type Request struct {
	Current types.Version
	// Target is a full version or a bare "major.minor" release, which
	// resolves to the latest version of that release's channel.
	Target types.Version
	Tiers  []types.Tier
	Arch   string
	// Parallelism is the number of concurrent fetches; values below 2 fetch sequentially.
	Parallelism int
}

// Result is the outcome of Plan.
type Result struct {
	Current  types.Version   `json:"current"`
	Target   types.Version   `json:"target"`
	Channels []types.Channel `json:"channels"`
	// ResolvedFrom is the bare release the target was resolved from, if any.
	ResolvedFrom types.Version `json:"resolvedFrom,omitempty"`
	Path         types.Path    `json:"path"`
	// Found is false when the target is unreachable from the current version.
	Found bool `json:"found"`
}

// UpToDate reports whether no upgrade is needed.
func (r *Result) UpToDate() bool {
	return r.Found && len(r.Path) == 0
}

// Plan fetches every relevant channel, merges the graphs and searches the
// shortest upgrade path. Any fetch failure aborts the plan.
func Plan(ctx context.Context, f Fetcher, req Request) (*Result, error) {
	list, err := channels.ForRange(req.Current, req.Target, req.Tiers)
	if err != nil {
		return nil, err
	}
	log.Debugf("querying channels %s", strings.Join(channelNames(list), ", "))

	fetched, err := FetchAll(ctx, f, list, req.Arch, req.Parallelism)
	if err != nil {
		return nil, err
	}

	graphs := make([]*graph.Graph, len(fetched))
	for i, cg := range fetched {
		graphs[i] = cg.Graph
	}
	merged := graph.Fold(graphs...)
	log.WithFields(log.Fields{
		"channels": len(fetched),
		"versions": len(merged.Versions()),
		"edges":    merged.EdgeCount(),
	}).Debug("merged channel graphs")

	res := &Result{
		Current:  req.Current,
		Target:   req.Target,
		Channels: list,
	}

	if channels.IsMajorMinor(req.Target) {
		latest, err := resolveLatest(req.Target, fetched)
		if err != nil {
			return nil, err
		}
		log.Debugf("using %s as target instead of %s", latest, req.Target)
		res.ResolvedFrom = req.Target
		res.Target = latest
	}

	res.Path, res.Found = shortest.Path(merged, res.Current, res.Target)
	log.WithFields(log.Fields{"found": res.Found, "steps": res.Path.Steps()}).Debug("searched upgrade path")
	return res, nil
}

// FetchAll fetches the given channels and returns their graphs in the same
// order. With parallelism above 1 the fetches run concurrently; the first
// failure cancels the remaining ones.
func FetchAll(ctx context.Context, f Fetcher, list []types.Channel, arch string, parallelism int) ([]*cincinnati.ChannelGraph, error) {
	out := make([]*cincinnati.ChannelGraph, len(list))

	if parallelism < 2 {
		for i, ch := range list {
			cg, err := f.Fetch(ctx, ch, arch)
			if err != nil {
				return nil, err
			}
			out[i] = cg
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, ch := range list {
		g.Go(func() error {
			cg, err := f.Fetch(gctx, ch, arch)
			if err != nil {
				return err
			}
			out[i] = cg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveLatest picks the tip of the last fetched channel belonging to the
// release, i.e. the most permissive requested tier.
func resolveLatest(release types.Version, fetched []*cincinnati.ChannelGraph) (types.Version, error) {
	suffix := "-" + string(release)
	if r, err := channels.MinorOf(release); err == nil {
		suffix = "-" + r.String()
	}
	for i := len(fetched) - 1; i >= 0; i-- {
		if strings.HasSuffix(string(fetched[i].Channel), suffix) {
			return fetched[i].Latest, nil
		}
	}
	return "", fmt.Errorf("no channel fetched for release %s", release)
}

func channelNames(list []types.Channel) []string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = string(c)
	}
	return names
}
