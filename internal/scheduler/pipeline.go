package scheduler

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed pipeline.yaml
var defaultPipeline []byte

type TaskSpec struct {
	Name       string        `yaml:"name"`
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Pipeline is an ordered list of tasks; a task runs only after the previous one succeeded.
type Pipeline struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tasks       []TaskSpec `yaml:"tasks"`
}

func DefaultPipeline() (Pipeline, error) {
	return ParsePipeline(defaultPipeline)
}

func ParsePipeline(data []byte) (Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline: %w", err)
	}
	if len(p.Tasks) == 0 {
		return Pipeline{}, fmt.Errorf("pipeline %q has no tasks", p.Name)
	}

	seen := make(map[string]bool, len(p.Tasks))
	for i, task := range p.Tasks {
		if task.Name == "" {
			return Pipeline{}, fmt.Errorf("task %d has no name", i)
		}
		if seen[task.Name] {
			return Pipeline{}, fmt.Errorf("task %q defined twice", task.Name)
		}
		seen[task.Name] = true
		if task.Attempts < 1 {
			p.Tasks[i].Attempts = 1
		}
	}
	return p, nil
}
