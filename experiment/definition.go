package experiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/researchmesh/core"
)

// Definition describes one experiment in a YAML definitions file.
type Definition struct {
	Name       string `yaml:"name"`
	Hypothesis string `yaml:"hypothesis"`
	Control    string `yaml:"control"`
	Treatment  string `yaml:"treatment"`
}

// definitionsFile is the top-level document shape.
type definitionsFile struct {
	Experiments []Definition `yaml:"experiments"`
}

// LoadDefinitions reads experiment definitions from a YAML file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions file: %w", err)
	}

	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse definitions file: %w", err)
	}

	for i, def := range file.Experiments {
		if def.Name == "" || def.Control == "" || def.Treatment == "" {
			return nil, fmt.Errorf("definition %d: name, control and treatment are required", i)
		}
	}
	return file.Experiments, nil
}

// DefaultDefinitions returns the seeded experiments, one A/B comparison per
// hypothesis.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:       "on-demand-context-loading",
			Hypothesis: core.HypothesisContextEfficiency,
			Control:    "preload",
			Treatment:  "on_demand",
		},
		{
			Name:       "hub-mediated-routing",
			Hypothesis: core.HypothesisHubAndSpoke,
			Control:    "direct",
			Treatment:  "hub",
		},
		{
			Name:       "contract-first-handoffs",
			Hypothesis: core.HypothesisContractHandoffs,
			Control:    "ad_hoc",
			Treatment:  "contract",
		},
	}
}

// Seed creates and starts one experiment per definition on the runner.
func Seed(runner core.ExperimentRunner, defs []Definition) ([]core.Experiment, error) {
	experiments := make([]core.Experiment, 0, len(defs))
	for _, def := range defs {
		exp, err := runner.Create(def.Name, def.Hypothesis, def.Control, def.Treatment)
		if err != nil {
			return experiments, fmt.Errorf("create experiment %q: %w", def.Name, err)
		}
		if err := runner.Start(exp.ID); err != nil {
			return experiments, fmt.Errorf("start experiment %q: %w", def.Name, err)
		}
		exp.Status = core.ExperimentRunning
		experiments = append(experiments, exp)
	}
	return experiments, nil
}
