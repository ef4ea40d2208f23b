// Package cincinnati fetches per-channel upgrade graphs from the OpenShift
// update service and turns them into channel-tagged edge graphs.
package cincinnati

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/adfinis/ocp-upgrade-path/pkg/graph"
	"github.com/adfinis/ocp-upgrade-path/pkg/types"
)

// Client configuration defaults.
const (
	DefaultURL     = "https://api.openshift.com/api/upgrades_info/v1/graph"
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps the response body; real channel graphs are a few hundred KiB.
	maxBodySize = 32 << 20
)

// ChannelGraph is the edge graph of one channel together with its tip.
type ChannelGraph struct {
	Channel types.Channel
	Graph   *graph.Graph
	Latest  types.Version
}

// Client queries the update service. It never retries and never caches.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout bounds every fetch. Zero or negative values fall back to DefaultTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		} else {
			c.timeout = DefaultTimeout
		}
	}
}

// WithQPS limits how many requests per second the client issues.
// Zero or negative values disable the limit.
func WithQPS(qps float64) ClientOption {
	return func(c *Client) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
		}
	}
}

// NewClient creates a client for the given graph endpoint. An empty
// baseURL selects DefaultURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// graphResponse is the wire form of a channel graph.
type graphResponse struct {
	Nodes []node  `json:"nodes"`
	Edges [][]int `json:"edges"`
}

type node struct {
	Version  string            `json:"version"`
	Payload  string            `json:"payload,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Fetch retrieves the graph of channel for arch, tags every edge with the
// channel and determines the channel's latest version.
func (c *Client) Fetch(ctx context.Context, channel types.Channel, arch string) (*ChannelGraph, error) {
	if channel == "" || arch == "" {
		return nil, &FetchError{Channel: channel, Arch: arch, Err: fmt.Errorf("channel and architecture are required")}
	}

	endpoint, err := c.endpoint(channel, arch)
	if err != nil {
		return nil, &FetchError{Channel: channel, Arch: arch, URL: c.baseURL, Err: err}
	}

	log.WithFields(log.Fields{"channel": channel, "arch": arch}).Debug("fetching channel graph")

	data, status, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, &FetchError{Channel: channel, Arch: arch, URL: endpoint, StatusCode: status, Err: err}
	}

	var resp graphResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &FetchError{Channel: channel, Arch: arch, URL: endpoint, StatusCode: status, Err: fmt.Errorf("decoding graph: %w", err)}
	}

	cg, err := transform(channel, &resp)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			fe.Arch, fe.URL, fe.StatusCode = arch, endpoint, status
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"channel": channel,
		"arch":    arch,
		"nodes":   len(resp.Nodes),
		"edges":   cg.Graph.EdgeCount(),
		"latest":  cg.Latest,
	}).Debug("fetched channel graph")

	return cg, nil
}

func (c *Client) endpoint(channel types.Channel, arch string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing graph URL: %w", err)
	}
	q := u.Query()
	q.Set("channel", string(channel))
	q.Set("arch", arch)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetch performs a bounded HTTP GET and returns the body and status code.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// transform rewrites index-based edges into channel-tagged edges and finds
// the single version that is a destination but never a source.
func transform(channel types.Channel, resp *graphResponse) (*ChannelGraph, error) {
	edges := make([]types.Edge, 0, len(resp.Edges))
	targets := sets.New[types.Version]()

	for i, raw := range resp.Edges {
		if len(raw) != 2 {
			return nil, &FetchError{Channel: channel, Err: fmt.Errorf("edge %d has %d endpoints, want 2", i, len(raw))}
		}
		from, err := nodeVersion(resp.Nodes, raw[0])
		if err != nil {
			return nil, &FetchError{Channel: channel, Err: fmt.Errorf("edge %d: %w", i, err)}
		}
		to, err := nodeVersion(resp.Nodes, raw[1])
		if err != nil {
			return nil, &FetchError{Channel: channel, Err: fmt.Errorf("edge %d: %w", i, err)}
		}
		edges = append(edges, types.Edge{From: from, To: to, Via: channel})
		targets.Insert(to)
	}
	g := graph.FromEdges(edges...)

	sources := sets.New(g.Sources()...)
	tips := sets.List(targets.Difference(sources))
	if len(tips) != 1 {
		return nil, &AmbiguousLatestVersionError{Channel: channel, Candidates: tips}
	}

	return &ChannelGraph{Channel: channel, Graph: g, Latest: tips[0]}, nil
}

func nodeVersion(nodes []node, idx int) (types.Version, error) {
	if idx < 0 || idx >= len(nodes) {
		return "", fmt.Errorf("node index %d out of range (%d nodes)", idx, len(nodes))
	}
	if nodes[idx].Version == "" {
		return "", fmt.Errorf("node %d has no version", idx)
	}
	return types.Version(nodes[idx].Version), nil
}
