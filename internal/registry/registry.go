package registry

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"livecap/internal/services"
)

const component = "registry"

// Source is one registry entry.
type Source struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// Reader produces the current source list.
type Reader interface {
	Read(ctx context.Context) ([]Source, error)
}

// Static serves a fixed source list.
type Static []Source

func (s Static) Read(context.Context) ([]Source, error) {
	out := make([]Source, len(s))
	copy(out, s)
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate rejects documents that list the same id twice. Which address
// would win is ambiguous, so the whole registry is refused.
func Validate(sources []Source) error {
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if _, ok := seen[src.ID]; ok {
			return invalid(fmt.Sprintf("duplicate id %q", src.ID))
		}
		seen[src.ID] = struct{}{}
	}
	return nil
}

// Rejection is an entry the dispatcher passes over this cycle.
type Rejection struct {
	Source Source
	Reason string
}

// Screen splits sources into the ones that can be dispatched and the ones
// that cannot: entries without an address, and entries whose id differs only
// by case from an earlier one (their markers and output directories would
// collide on case-insensitive filesystems). Order is preserved. Ids that
// cannot name a file are left to the lock store to refuse.
func Screen(sources []Source) ([]Source, []Rejection) {
	fold := cases.Fold()
	usable := make([]Source, 0, len(sources))
	var rejected []Rejection
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if strings.TrimSpace(src.Address) == "" {
			rejected = append(rejected, Rejection{Source: src, Reason: "empty address"})
			continue
		}
		key := fold.String(src.ID)
		if prev, ok := seen[key]; ok {
			rejected = append(rejected, Rejection{Source: src, Reason: fmt.Sprintf("id differs only by case from %q", prev)})
			continue
		}
		seen[key] = src.ID
		usable = append(usable, src)
	}
	return usable, rejected
}

func invalid(message string) error {
	return services.Wrap(services.ErrRegistry, component, "validate", message, nil)
}
