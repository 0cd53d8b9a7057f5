package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChatRef is a stable, resolver-independent name for a remote entity:
// "username:<name>", "user:<id>", "chat:<id>", "channel:<id>" or "peer:<id>".
// The same ref resolves through any account's own entity cache, which is why
// it is the key used by pins, the reaction ledger and the peer cache.
type ChatRef string

type RefKind string

const (
	RefUsername RefKind = "username"
	RefUser     RefKind = "user"
	RefChat     RefKind = "chat"
	RefChannel  RefKind = "channel"
	RefPeer     RefKind = "peer"
)

// Parts splits the ref into its kind and value. Refs without a recognized
// kind prefix are treated as bare usernames so operator input like
// "durov" or "@durov" still resolves.
func (r ChatRef) Parts() (RefKind, string) {
	raw := strings.TrimSpace(string(r))
	kind, value, ok := strings.Cut(raw, ":")
	if !ok {
		return RefUsername, strings.TrimPrefix(raw, "@")
	}
	switch RefKind(kind) {
	case RefUsername, RefUser, RefChat, RefChannel, RefPeer:
		return RefKind(kind), value
	default:
		return RefUsername, strings.TrimPrefix(raw, "@")
	}
}

// NumericValue parses the value part as an id. Fails for username refs.
func (r ChatRef) NumericValue() (int64, error) {
	kind, value := r.Parts()
	if kind == RefUsername {
		return 0, fmt.Errorf("ref %q has no numeric id", r)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ref %q: parse id: %w", r, err)
	}
	return id, nil
}

func (r ChatRef) IsZero() bool { return strings.TrimSpace(string(r)) == "" }

// EntityKind classifies a resolved remote entity.
type EntityKind string

const (
	EntityUser    EntityKind = "user"
	EntityChat    EntityKind = "chat"
	EntityChannel EntityKind = "channel"
)

// Entity is a live resolved remote entity as reported by the RPC client.
type Entity struct {
	Kind       EntityKind
	ID         int64
	AccessHash int64
	Username   string
	Title      string
	FirstName  string
	LastName   string
	// Broadcast marks channels that are one-way broadcast feeds; their
	// replies live in a linked discussion chat.
	Broadcast bool
}

// RefForEntity derives the stable reference for an entity, preferring the
// username form when one exists so the ref survives id-space migrations.
func RefForEntity(e Entity) ChatRef {
	if e.Username != "" {
		return ChatRef(string(RefUsername) + ":" + e.Username)
	}
	switch e.Kind {
	case EntityUser:
		return ChatRef(fmt.Sprintf("%s:%d", RefUser, e.ID))
	case EntityChat:
		return ChatRef(fmt.Sprintf("%s:%d", RefChat, e.ID))
	case EntityChannel:
		return ChatRef(fmt.Sprintf("%s:%d", RefChannel, e.ID))
	default:
		return ChatRef(fmt.Sprintf("%s:%d", RefPeer, e.ID))
	}
}

func (e Entity) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	if name != "" {
		return name
	}
	if e.Username != "" {
		return "@" + e.Username
	}
	return fmt.Sprintf("%s %d", e.Kind, e.ID)
}

// PeerKind mirrors EntityKind on the addressing side.
type PeerKind string

const (
	PeerUser    PeerKind = "user"
	PeerChat    PeerKind = "chat"
	PeerChannel PeerKind = "channel"
)

// PeerHandle is the protocol-level addressable reference produced from a
// resolved entity. Distinct accounts resolve distinct handles (access hashes
// are per-account), so handles are cached per (account, ref) pair.
type PeerHandle struct {
	Kind       PeerKind
	ID         int64
	AccessHash int64
}

func (p PeerHandle) IsZero() bool { return p.ID == 0 && p.Kind == "" }
