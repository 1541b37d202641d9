// SPDX-License-Identifier: EUPL-1.2

package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRepositoryDescriptorIsValid decodes the descriptor this repository
// actually ships and asserts the keys the schema requires.
func TestRepositoryDescriptorIsValid(t *testing.T) {
	p, err := Load(filepath.Join("..", "..", ".semaphore", "semaphore.yml"))
	require.NoError(t, err)

	assert.Equal(t, "v1.0", p.Version)
	assert.Equal(t, "goetm", p.Name)
	assert.Equal(t, "e1-standard-2", p.Agent.Machine.Type)
	assert.Equal(t, "ubuntu2004", p.Agent.Machine.OSImage)
	require.NotEmpty(t, p.Blocks)

	block := p.Blocks[0]
	assert.NotEmpty(t, block.Task.Prologue.Commands, "prologue pins the toolchain and restores the module cache")
	require.NotEmpty(t, block.Task.Jobs)
	for _, job := range block.Task.Jobs {
		assert.NotEmpty(t, job.Name)
		assert.NotEmpty(t, job.Commands)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
version: v1.0
name: x
agent:
  machine:
    type: e1-standard-2
    os_imagee: ubuntu2004
blocks:
  - name: b
    task:
      jobs:
        - name: j
          commands: ["true"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse pipeline")
}

func TestParseRejectsMultipleDocuments(t *testing.T) {
	_, err := Parse([]byte("version: v1.0\nname: x\n---\nversion: v1.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestValidateRequiredKeys(t *testing.T) {
	valid := func() Pipeline {
		return Pipeline{
			Version: "v1.0",
			Name:    "goetm",
			Agent:   Agent{Machine: Machine{Type: "e1-standard-2", OSImage: "ubuntu2004"}},
			Blocks: []Block{{
				Name: "Tests",
				Task: Task{
					EnvVars: []EnvVar{{Name: "CGO_ENABLED", Value: "0"}},
					Jobs:    []Job{{Name: "Test", Commands: []string{"go test ./..."}}},
				},
			}},
		}
	}

	validPipeline := valid()
	require.NoError(t, validPipeline.Validate())

	cases := []struct {
		name    string
		mutate  func(*Pipeline)
		wantMsg string
	}{
		{"missing version", func(p *Pipeline) { p.Version = "" }, "version"},
		{"missing name", func(p *Pipeline) { p.Name = "" }, "name"},
		{"missing machine type", func(p *Pipeline) { p.Agent.Machine.Type = "" }, "machine.type"},
		{"no blocks", func(p *Pipeline) { p.Blocks = nil }, "block"},
		{"unnamed block", func(p *Pipeline) { p.Blocks[0].Name = "" }, "no name"},
		{"block without jobs", func(p *Pipeline) { p.Blocks[0].Task.Jobs = nil }, "no jobs"},
		{"unnamed env var", func(p *Pipeline) { p.Blocks[0].Task.EnvVars[0].Name = "" }, "env var"},
		{
			"duplicate env var",
			func(p *Pipeline) {
				p.Blocks[0].Task.EnvVars = append(p.Blocks[0].Task.EnvVars, EnvVar{Name: "CGO_ENABLED", Value: "1"})
			},
			"repeats",
		},
		{"unnamed job", func(p *Pipeline) { p.Blocks[0].Task.Jobs[0].Name = "" }, "job without a name"},
		{"job without commands", func(p *Pipeline) { p.Blocks[0].Task.Jobs[0].Commands = nil }, "no commands"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(&p)

			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}
