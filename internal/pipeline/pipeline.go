// SPDX-License-Identifier: EUPL-1.2

// Package pipeline decodes the Semaphore CI pipeline descriptor shipped
// with this repository. The descriptor is a leaf artifact consumed by the
// external CI runner; this package only verifies that it parses under its
// schema and that the required keys are present.
package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Pipeline is the recognized surface of a Semaphore v1.0 pipeline file.
type Pipeline struct {
	Version string  `yaml:"version"`
	Name    string  `yaml:"name"`
	Agent   Agent   `yaml:"agent"`
	Blocks  []Block `yaml:"blocks"`
}

// Agent selects the machine the pipeline runs on.
type Agent struct {
	Machine Machine `yaml:"machine"`
}

// Machine names a machine type and OS image.
type Machine struct {
	Type    string `yaml:"type"`
	OSImage string `yaml:"os_image"`
}

// Block is one named group of jobs with a shared task environment.
type Block struct {
	Name string `yaml:"name"`
	Task Task   `yaml:"task"`
}

// Task holds a block's environment, prologue and jobs.
type Task struct {
	EnvVars  []EnvVar `yaml:"env_vars,omitempty"`
	Prologue Prologue `yaml:"prologue,omitempty"`
	Jobs     []Job    `yaml:"jobs"`
}

// EnvVar is a single name/value environment entry.
type EnvVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Prologue lists commands run before every job of a block.
type Prologue struct {
	Commands []string `yaml:"commands,omitempty"`
}

// Job is a named command sequence.
type Job struct {
	Name     string   `yaml:"name"`
	Commands []string `yaml:"commands"`
}

// Load reads and validates a pipeline descriptor from disk.
func Load(path string) (*Pipeline, error) {
	// #nosec G304 -- the descriptor path is chosen by the caller
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a pipeline descriptor strictly: unknown fields and
// multi-document files are rejected, then the required keys are checked.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("pipeline file contains multiple documents or trailing content")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the keys the schema requires.
func (p *Pipeline) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("pipeline: version is required")
	}
	if p.Name == "" {
		return fmt.Errorf("pipeline: name is required")
	}
	if p.Agent.Machine.Type == "" {
		return fmt.Errorf("pipeline: agent.machine.type is required")
	}
	if len(p.Blocks) == 0 {
		return fmt.Errorf("pipeline: at least one block is required")
	}

	for i, block := range p.Blocks {
		if block.Name == "" {
			return fmt.Errorf("pipeline: block %d has no name", i)
		}
		if len(block.Task.Jobs) == 0 {
			return fmt.Errorf("pipeline: block %q has no jobs", block.Name)
		}
		seen := make(map[string]bool, len(block.Task.EnvVars))
		for _, env := range block.Task.EnvVars {
			if env.Name == "" {
				return fmt.Errorf("pipeline: block %q has an env var without a name", block.Name)
			}
			if seen[env.Name] {
				return fmt.Errorf("pipeline: block %q repeats env var %s", block.Name, env.Name)
			}
			seen[env.Name] = true
		}
		for _, job := range block.Task.Jobs {
			if job.Name == "" {
				return fmt.Errorf("pipeline: block %q has a job without a name", block.Name)
			}
			if len(job.Commands) == 0 {
				return fmt.Errorf("pipeline: job %q has no commands", job.Name)
			}
		}
	}
	return nil
}
