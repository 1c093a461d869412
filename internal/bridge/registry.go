package bridge

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// SelectorAll addresses every configured friend.
const SelectorAll = "all"

var (
	ErrInvalidID    = errors.New("invalid identifier")
	ErrEmptyFriends = errors.New("no friends configured")
)

// ID is a platform user identifier in canonical decimal form. Identifiers
// can exceed 64 bits, so they are only ever handled as big integers or text.
type ID string

// ParseID normalizes s through math/big. "007" and "+7" both become "7".
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(n.String()), nil
}

func (id ID) String() string { return string(id) }

// Recipient lets an ID be passed straight to telebot's Send.
func (id ID) Recipient() string { return string(id) }

// Tag maps a lowercase alias to a single friend.
type Tag struct {
	Name string
	ID   ID
}

// Registry is the set of friends the bridge relays for. It is immutable
// once built and safe for concurrent reads.
type Registry struct {
	ids     []ID
	members map[ID]struct{}
	byTag   map[string]ID
	tagByID map[ID]string
}

// NewRegistry builds a Registry from the configured ID list and tags.
// Duplicate IDs keep their first position. A tagged ID missing from ids is
// appended after them.
func NewRegistry(ids []ID, tags []Tag) (*Registry, error) {
	r := &Registry{
		members: make(map[ID]struct{}),
		byTag:   make(map[string]ID),
		tagByID: make(map[ID]string),
	}
	for _, id := range ids {
		r.add(id)
	}
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		switch {
		case name == "":
			return nil, fmt.Errorf("empty tag for %s", t.ID)
		case name == SelectorAll:
			return nil, fmt.Errorf("tag %q is reserved", name)
		case strings.ContainsFunc(name, isSpace):
			return nil, fmt.Errorf("tag %q contains whitespace", name)
		}
		if prev, ok := r.byTag[name]; ok {
			return nil, fmt.Errorf("duplicate tag %q (%s and %s)", name, prev, t.ID)
		}
		r.byTag[name] = t.ID
		r.tagByID[t.ID] = name
		r.add(t.ID)
	}
	if len(r.ids) == 0 {
		return nil, ErrEmptyFriends
	}
	return r, nil
}

func (r *Registry) add(id ID) {
	if _, ok := r.members[id]; ok {
		return
	}
	r.members[id] = struct{}{}
	r.ids = append(r.ids, id)
}

// IDs returns every friend in configuration order.
func (r *Registry) IDs() []ID {
	out := make([]ID, len(r.ids))
	copy(out, r.ids)
	return out
}

func (r *Registry) Contains(id ID) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Registry) Lookup(tag string) (ID, bool) {
	id, ok := r.byTag[strings.ToLower(tag)]
	return id, ok
}

func (r *Registry) TagOf(id ID) (string, bool) {
	tag, ok := r.tagByID[id]
	return tag, ok
}

// Tags returns the known tags sorted alphabetically.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.byTag))
	for t := range r.byTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Selectors lists everything a command may address: "all" then the tags.
func (r *Registry) Selectors() []string {
	return append([]string{SelectorAll}, r.Tags()...)
}
