// Package workflow loads YAML step lists and runs them through the node
// registry: every step is configured on the schema produced by the previous
// step before any data is touched, then the steps execute in order.
package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/paveg/tsprep/internal/node"
	"gopkg.in/yaml.v3"
)

// Step is one node invocation of a workflow
type Step struct {
	Node string `yaml:"node"`
	// Name labels the step in logs; defaults to the node id
	Name     string    `yaml:"name,omitempty"`
	Settings yaml.Node `yaml:"settings,omitempty"`
}

// Label returns the name used for the step in logs and errors
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Node
}

// Workflow is an ordered list of steps
type Workflow struct {
	Steps []Step `yaml:"steps"`
}

// Load reads a workflow document
func Load(r io.Reader) (*Workflow, error) {
	var wf Workflow
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&wf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("workflow: empty document")
		}
		return nil, fmt.Errorf("workflow: %w", err)
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// LoadFile reads a workflow document from path
func LoadFile(path string) (*Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the structure of the workflow without consulting a registry
func (wf *Workflow) Validate() error {
	if len(wf.Steps) == 0 {
		return fmt.Errorf("workflow: no steps")
	}
	for i, s := range wf.Steps {
		if s.Node == "" {
			return fmt.Errorf("workflow: step %d has no node", i+1)
		}
		if s.Settings.Kind != 0 && s.Settings.Kind != yaml.MappingNode {
			return fmt.Errorf("workflow: step %d (%s): settings must be a mapping", i+1, s.Label())
		}
	}
	return nil
}

// Instantiate creates the node of every step and decodes its settings over
// the node defaults. Unknown settings keys are rejected.
func (wf *Workflow) Instantiate(registry *node.Registry) ([]node.Node, error) {
	nodes := make([]node.Node, 0, len(wf.Steps))
	for i, s := range wf.Steps {
		n, err := registry.New(s.Node)
		if err != nil {
			return nil, fmt.Errorf("workflow: step %d: %w", i+1, err)
		}
		if err := decodeSettings(s.Settings, n.Settings()); err != nil {
			return nil, fmt.Errorf("workflow: step %d (%s): %w", i+1, s.Label(), err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// decodeSettings re-encodes the settings mapping so the strict decoder can
// report keys the node does not know.
func decodeSettings(settings yaml.Node, target any) error {
	if settings.Kind == 0 {
		return nil
	}
	raw, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
