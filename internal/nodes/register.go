// Package nodes collects the preprocessing nodes offered to the host.
package nodes

import (
	"github.com/paveg/tsprep/internal/node"
	"github.com/paveg/tsprep/internal/nodes/aggregation"
	"github.com/paveg/tsprep/internal/nodes/alignment"
	"github.com/paveg/tsprep/internal/nodes/differencing"
)

// Factories returns the factory of every node in registration order
func Factories() []node.Factory {
	return []node.Factory{
		aggregation.New,
		alignment.New,
		differencing.New,
	}
}

// RegisterAll adds every node to r
func RegisterAll(r *node.Registry) error {
	for _, f := range Factories() {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every node
func NewRegistry() *node.Registry {
	r := node.NewRegistry()
	if err := RegisterAll(r); err != nil {
		// ids are compile-time constants; a clash is a programming error
		panic(err)
	}
	return r
}
