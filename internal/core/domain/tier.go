package domain

import "fmt"

// Tier is the execution tier a service instance runs on.
type Tier string

const (
	TierBase Tier = "BASE"
	TierFast Tier = "FAST"
)

func ParseTier(s string) (Tier, error) {
	switch s {
	case "base", "BASE":
		return TierBase, nil
	case "fast", "FAST":
		return TierFast, nil
	}
	return "", fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, s)
}

// Location is where an event's authoritative state lives. The empty value
// is treated as LocationBase: every event is created on the base tier.
type Location string

const (
	LocationBase               Location = "BASE"
	LocationDelegatingToFast   Location = "DELEGATING_TO_FAST"
	LocationFast               Location = "FAST"
	LocationUndelegatingToBase Location = "UNDELEGATING_TO_BASE"
)

type RequestKind string

const (
	RequestDelegate            RequestKind = "DELEGATE"
	RequestCommit              RequestKind = "COMMIT"
	RequestUndelegate          RequestKind = "UNDELEGATE"
	RequestCommitAndUndelegate RequestKind = "COMMIT_AND_UNDELEGATE"
)

func (l Location) normalize() Location {
	if l == "" {
		return LocationBase
	}
	return l
}

// Request returns the location an accepted request moves the event to.
func (l Location) Request(kind RequestKind) (Location, error) {
	from := l.normalize()
	switch {
	case kind == RequestDelegate && from == LocationBase:
		return LocationDelegatingToFast, nil
	case kind == RequestCommit && from == LocationFast:
		return LocationFast, nil
	case (kind == RequestUndelegate || kind == RequestCommitAndUndelegate) && from == LocationFast:
		return LocationUndelegatingToBase, nil
	}
	return from, fmt.Errorf("%w: %s while %s", ErrInvalidTierTransition, kind, from)
}

// Complete returns the settled location once the engine finished moving
// state.
func (l Location) Complete() (Location, error) {
	switch l.normalize() {
	case LocationDelegatingToFast:
		return LocationFast, nil
	case LocationUndelegatingToBase:
		return LocationBase, nil
	}
	return l, fmt.Errorf("%w: nothing in flight while %s", ErrInvalidTierTransition, l.normalize())
}

func (l Location) AuthoritativeOn(t Tier) bool {
	switch l.normalize() {
	case LocationBase:
		return t == TierBase
	case LocationFast:
		return t == TierFast
	}
	return false
}

func (l Location) InTransition() bool {
	l = l.normalize()
	return l == LocationDelegatingToFast || l == LocationUndelegatingToBase
}
