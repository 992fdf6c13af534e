package hashgraph

import "github.com/pkg/errors"

// Sentinel errors returned across the engine, mirrored after the
// teacher's own machine.go sentinel set (ErrStopped, ErrTimeout, ...).
var (
	// ErrUnknownParent is returned when an inserted event names a
	// self-parent or other-parent the event store does not hold.
	ErrUnknownParent = errors.New("hashgraph: unknown parent")

	// ErrDuplicateEvent is returned when an event with the same hash
	// is already known.
	ErrDuplicateEvent = errors.New("hashgraph: duplicate event")

	// ErrSelfParentMismatch is returned when an event's self-parent was
	// not created by the same creator as the event itself.
	ErrSelfParentMismatch = errors.New("hashgraph: self-parent creator mismatch")

	// ErrForkDetected is returned when a creator is seen to have
	// produced two events with the same self-parent.
	ErrForkDetected = errors.New("hashgraph: fork detected")

	// ErrUnknownPeer is returned when an event's creator is not a
	// member of any round's peer set reachable from the insertion
	// point.
	ErrUnknownPeer = errors.New("hashgraph: unknown peer")

	// ErrRoundNotFound is returned when a round lookup misses.
	ErrRoundNotFound = errors.New("hashgraph: round not found")

	// ErrEventPurged is returned when an operation references an event
	// that has already been purged from memory.
	ErrEventPurged = errors.New("hashgraph: event purged")

	// ErrStopped is returned by the gossip node's run loop once Stop
	// has been called.
	ErrStopped = errors.New("hashgraph: node stopped")

	// ErrOutOfSync is returned when a peer's known-events vector is too
	// far behind to be caught up by an incremental diff and a frame
	// snapshot is required instead.
	ErrOutOfSync = errors.New("hashgraph: peer out of sync")

	// ErrInvalidSignature is returned when an event's signature does
	// not verify against its claimed creator.
	ErrInvalidSignature = errors.New("hashgraph: invalid signature")

	// ErrSequenceMismatch is returned when an inserted event's sequence
	// number does not equal the creator's next expected id.
	ErrSequenceMismatch = errors.New("hashgraph: event sequence number mismatch")

	// ErrNoSelfRoot is returned by AddSelfEvent when this node has not
	// yet bootstrapped or joined: it has no root event to build on.
	ErrNoSelfRoot = errors.New("hashgraph: no self root event yet")

	// ErrAlreadyBootstrapped is returned by Bootstrap or JoinSelfEvent
	// when this node already has a root event.
	ErrAlreadyBootstrapped = errors.New("hashgraph: node already has a root event")

	// ErrNotMember is returned by fast-sync when asked for a frame by a
	// peer id that is not currently a member.
	ErrNotMember = errors.New("hashgraph: peer is not a current member")
)
