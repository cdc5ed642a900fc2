// Package state holds per-quest variable storage and the content errors
// raised when authored quest data references something that does not exist.
//
// A Store is not safe for concurrent use.
package state

import "github.com/nathoo/questtrigger/types"

// Store is an ordered mapping from variable name to value. Names are unique;
// insertion order is kept so iteration is deterministic.
type Store struct {
	quest string
	vars  []types.Variable
}

// NewStore creates a store owned by the named quest, seeded with vars.
// Later duplicates of a name overwrite earlier ones.
func NewStore(quest string, vars ...types.Variable) *Store {
	s := &Store{quest: quest}
	for _, v := range vars {
		s.Set(v.Name, v.Value)
	}
	return s
}

// Get returns the value of a variable. An absent name is a content error,
// never a zero value.
func (s *Store) Get(name string) (types.Value, error) {
	for _, v := range s.vars {
		if v.Name == name {
			return v.Value, nil
		}
	}
	return types.Value{}, &ContentError{Quest: s.quest, Variable: name, Err: ErrUnknownVariable}
}

// Set overwrites the variable's value, inserting it when absent.
func (s *Store) Set(name string, value types.Value) {
	for i := range s.vars {
		if s.vars[i].Name == name {
			s.vars[i].Value = value
			return
		}
	}
	s.vars = append(s.vars, types.Variable{Name: name, Value: value})
}

// Has reports whether the variable exists.
func (s *Store) Has(name string) bool {
	for _, v := range s.vars {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of variables.
func (s *Store) Len() int {
	return len(s.vars)
}

// Variables returns a copy of the variables in insertion order.
func (s *Store) Variables() []types.Variable {
	out := make([]types.Variable, len(s.vars))
	copy(out, s.vars)
	return out
}
