package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/carbon-intensity-aggregation/internal/intensity"
)

type batchRunner interface {
	Execute(ctx context.Context, batch []intensity.Observation) ([]intensity.Record, error)
}

type manifest struct {
	Inputs []intensity.Observation `yaml:"inputs"`
}

type manifestOutput struct {
	Outputs []intensity.Record `yaml:"outputs"`
}

// runManifest executes the inputs of the YAML manifest at path as one batch
// and writes the outputs as YAML to w.
func runManifest(ctx context.Context, runner batchRunner, path string, w io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Inputs) == 0 {
		return fmt.Errorf("manifest %s has no inputs", path)
	}

	outputs, err := runner.Execute(ctx, m.Inputs)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(manifestOutput{Outputs: outputs}); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return enc.Close()
}
