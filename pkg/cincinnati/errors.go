package cincinnati

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adfinis/ocp-upgrade-path/pkg/types"
)

var (
	// ErrFetch is wrapped by every FetchError.
	ErrFetch = errors.New("failed to fetch channel graph")
	// ErrAmbiguousLatestVersion is returned when a channel graph does not have exactly one tip.
	ErrAmbiguousLatestVersion = errors.New("channel graph has no unique latest version")
)

// FetchError reports a transport, status or decode failure for one channel.
type FetchError struct {
	Channel    types.Channel
	Arch       string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %q (arch %s)", ErrFetch, e.Channel, e.Arch)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// AmbiguousLatestVersionError lists the tip candidates found in a channel.
// Candidates is empty when every destination also has outgoing edges.
type AmbiguousLatestVersionError struct {
	Channel    types.Channel
	Candidates []types.Version
}

func (e *AmbiguousLatestVersionError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("%s: %q has no version without outgoing edges", ErrAmbiguousLatestVersion, e.Channel)
	}
	names := make([]string, len(e.Candidates))
	for i, v := range e.Candidates {
		names[i] = string(v)
	}
	return fmt.Sprintf("%s: %q has %d candidates (%s)", ErrAmbiguousLatestVersion, e.Channel, len(names), strings.Join(names, ", "))
}

func (e *AmbiguousLatestVersionError) Unwrap() error {
	return ErrAmbiguousLatestVersion
}
