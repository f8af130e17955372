package shmfifo

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Nullable is a configuration value which is either set or null. The zero
// value is null.
type Nullable[T any] struct {
	value T
	set   bool
}

// Null returns a null value of type T.
func Null[T any]() (null Nullable[T]) { return null }

// NullableValue returns a Nullable holding v.
func NullableValue[T any](v T) Nullable[T] { return Nullable[T]{value: v, set: true} }

// Value returns the value held by n and whether n is set.
func (n Nullable[T]) Value() (T, bool) { return n.value, n.set }

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	*n = Nullable[T]{}
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &n.value); err != nil {
		return err
	}
	n.set = true
	return nil
}

func (n Nullable[T]) MarshalYAML() (any, error) {
	if !n.set {
		return nil, nil
	}
	return n.value, nil
}

func (n *Nullable[T]) UnmarshalYAML(node *yaml.Node) error {
	*n = Nullable[T]{}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if err := node.Decode(&n.value); err != nil {
		return err
	}
	n.set = true
	return nil
}
