package graph

import (
	"path"

	"github.com/huangsam/waypoint/core/classify"
	"github.com/huangsam/waypoint/schema"
)

// nameSet is a set of identifiers.
type nameSet map[string]struct{}

func newNameSet(names ...[]string) nameSet {
	s := nameSet{}
	for _, list := range names {
		for _, n := range list {
			if n != "" {
				s[n] = struct{}{}
			}
		}
	}
	return s
}

// intersect returns the number of names both sets hold.
func (s nameSet) intersect(other nameSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for name := range small {
		if _, ok := large[name]; ok {
			n++
		}
	}
	return n
}

// Fingerprint is the relatedness-relevant view of a unit.
type Fingerprint struct {
	Stem           string
	Layer          schema.Layer
	Dir            string
	Types          nameSet // Declared non-interface types
	Interfaces     nameSet // Declared interfaces
	InterfaceStems nameSet // Declared interfaces without their prefix
	References     nameSet
	Resources      nameSet
}

// NewFingerprint derives the fingerprint of a unit.
func NewFingerprint(naming *classify.NamingStrategy, u schema.SourceUnit) *Fingerprint {
	fp := &Fingerprint{
		Stem:           naming.Stem(u.Path),
		Layer:          u.Kind.Layer(),
		Dir:            path.Dir(u.Path),
		Types:          nameSet{},
		Interfaces:     newNameSet(u.Interfaces),
		InterfaceStems: nameSet{},
		References:     newNameSet(u.References),
		Resources:      newNameSet(u.Resources),
	}
	for name := range fp.Interfaces {
		fp.InterfaceStems[naming.TrimInterfacePrefix(name)] = struct{}{}
	}
	for _, t := range u.DeclaredTypes {
		if _, ok := fp.Interfaces[t]; !ok {
			fp.Types[t] = struct{}{}
		}
	}
	return fp
}

type fingerprintKey struct {
	id      string
	version int
}

// fingerprint returns the cached fingerprint of a unit, computing it on a miss.
// Units without an id are never cached.
func (g *Graph) fingerprint(u schema.SourceUnit) *Fingerprint {
	if u.ID == "" || g.cache == nil {
		return NewFingerprint(g.naming, u)
	}
	key := fingerprintKey{id: u.ID, version: u.Version}
	if fp, ok := g.cache.Get(key); ok {
		return fp
	}
	fp := NewFingerprint(g.naming, u)
	g.cache.Add(key, fp)
	return fp
}
