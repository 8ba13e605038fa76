package condition

import (
	"fmt"
	"sort"
	"strings"
)

// Player owns a set of named condition attachments.
type Player struct {
	Name       string
	conditions map[string]*Node
	order      []string
}

// Condition returns the player's condition with the given name.
func (p *Player) Condition(name string) (*Node, bool) {
	n, ok := p.conditions[name]
	return n, ok
}

// Conditions returns the player's conditions in declaration order.
func (p *Player) Conditions() []*Node {
	nodes := make([]*Node, 0, len(p.order))
	for _, name := range p.order {
		nodes = append(nodes, p.conditions[name])
	}
	return nodes
}

// Registry holds the condition attachments of every player in a rule set.
//
// A Registry is built once and then shared read-only; it is not safe to mutate
// concurrently with lookups.
type Registry struct {
	players []*Player
	byName  map[string]*Player
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Player),
	}
}

// AddPlayer returns the named player, creating it if needed. Players keep
// insertion order, which determines lookup precedence in Resolve.
func (r *Registry) AddPlayer(name string) *Player {
	if p, ok := r.byName[name]; ok {
		return p
	}
	p := &Player{
		Name:       name,
		conditions: make(map[string]*Node),
	}
	r.players = append(r.players, p)
	r.byName[name] = p
	return p
}

// Player returns the named player.
func (r *Registry) Player(name string) (*Player, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Players returns all players in insertion order.
func (r *Registry) Players() []*Player {
	players := make([]*Player, len(r.players))
	copy(players, r.players)
	return players
}

// Define creates a new condition owned by player. Defining the same name twice for
// one player is an error.
func (r *Registry) Define(player, name string) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("condition name cannot be empty")
	}
	p := r.AddPlayer(player)
	if _, exists := p.conditions[name]; exists {
		return nil, fmt.Errorf("condition %q already defined for player %q", name, player)
	}
	n := NewNode(name, player)
	p.conditions[name] = n
	p.order = append(p.order, name)
	return n, nil
}

// Resolve searches every player's attachments in order and returns the first match.
func (r *Registry) Resolve(name string) (*Node, bool) {
	for _, p := range r.players {
		if n, ok := p.conditions[name]; ok {
			return n, true
		}
	}
	return nil, false
}

// Lookup resolves a "player/name" key or, failing that, a bare name. A bare
// name shared by several players resolves to the first of them, which is the
// rule for child references. Use Find for names supplied by callers.
func (r *Registry) Lookup(key string) (*Node, bool) {
	if n, ok := r.qualified(key); ok {
		return n, true
	}
	return r.Resolve(key)
}

// Find resolves a "player/name" key or a bare name that exactly one player
// defines. It fails with *ReferenceNotFoundError when nothing matches and
// with *AmbiguousReferenceError when a bare name matches several players.
func (r *Registry) Find(key string) (*Node, error) {
	if n, ok := r.qualified(key); ok {
		return n, nil
	}

	var matches []*Node
	for _, p := range r.players {
		if n, ok := p.conditions[key]; ok {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &ReferenceNotFoundError{Reference: key}
	case 1:
		return matches[0], nil
	}

	candidates := make([]string, len(matches))
	for i, n := range matches {
		candidates[i] = n.Key()
	}
	return nil, &AmbiguousReferenceError{Reference: key, Candidates: candidates}
}

func (r *Registry) qualified(key string) (*Node, bool) {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return nil, false
	}
	p, ok := r.byName[key[:i]]
	if !ok {
		return nil, false
	}
	n, ok := p.conditions[key[i+1:]]
	return n, ok
}

// Nodes returns every condition, grouped by player in insertion order.
func (r *Registry) Nodes() []*Node {
	var nodes []*Node
	for _, p := range r.players {
		nodes = append(nodes, p.Conditions()...)
	}
	return nodes
}

// Len returns the number of conditions in the registry.
func (r *Registry) Len() int {
	total := 0
	for _, p := range r.players {
		total += len(p.conditions)
	}
	return total
}

// Names returns all condition names sorted alphabetically, without duplicates.
func (r *Registry) Names() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range r.players {
		for _, name := range p.order {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
