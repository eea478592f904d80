package chain

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itsneelabh/agentwire/core"
)

// StepDefinition is the YAML shape of one chain step. Durations are
// strings in time.ParseDuration format ("500ms", "5s").
type StepDefinition struct {
	Name          string                 `yaml:"name"`
	Target        string                 `yaml:"target"`
	Method        string                 `yaml:"method"`
	Params        map[string]interface{} `yaml:"params"`
	Retry         *RetryDefinition       `yaml:"retry"`
	Timeout       string                 `yaml:"timeout"`
	HaltOnFailure bool                   `yaml:"halt_on_failure"`
}

// RetryDefinition is the YAML shape of a step's retry policy
type RetryDefinition struct {
	Count int    `yaml:"count"`
	Delay string `yaml:"delay"`
}

// Definition is a declarative chain loaded from YAML. Code-only hooks
// (conditions, transforms, error handlers) are attached afterwards with
// Bind, then Build produces the runnable chain.
type Definition struct {
	Name  string           `yaml:"name"`
	Steps []StepDefinition `yaml:"steps"`

	hooks map[string]StepHooks
}

// StepHooks carries the function-valued parts of a step that YAML cannot
// express
type StepHooks struct {
	Condition       func(ctx Context) bool
	TransformInput  func(ctx Context) map[string]interface{}
	TransformOutput func(result interface{}) (interface{}, error)
	ErrorHandler    func(err error, ctx Context) (interface{}, error)
}

// ParseDefinition parses a chain definition from YAML bytes
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse chain definition: %w", err)
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("chain definition has no steps")
	}
	def.hooks = make(map[string]StepHooks)
	return &def, nil
}

// LoadDefinition reads and parses a chain definition file
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain definition: %w", err)
	}
	return ParseDefinition(data)
}

// Bind attaches hooks to the named step. The step must exist in the
// definition.
func (d *Definition) Bind(stepName string, hooks StepHooks) error {
	for _, step := range d.Steps {
		if step.Name == stepName {
			d.hooks[stepName] = hooks
			return nil
		}
	}
	return fmt.Errorf("no step named %q in chain definition %q", stepName, d.Name)
}

// Build converts the definition into a runnable chain over the given
// communicator
func (d *Definition) Build(communicator core.Communicator, opts ...ChainOption) (*Chain, error) {
	steps := make([]ChainStep, 0, len(d.Steps))
	for i, def := range d.Steps {
		step := ChainStep{
			Name:          def.Name,
			Target:        def.Target,
			Method:        def.Method,
			Params:        def.Params,
			HaltOnFailure: def.HaltOnFailure,
		}

		if def.Timeout != "" {
			timeout, err := time.ParseDuration(def.Timeout)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): invalid timeout: %w", i+1, def.Name, err)
			}
			step.Timeout = timeout
		}
		if def.Retry != nil {
			step.RetryCount = def.Retry.Count
			if def.Retry.Delay != "" {
				delay, err := time.ParseDuration(def.Retry.Delay)
				if err != nil {
					return nil, fmt.Errorf("step %d (%s): invalid retry delay: %w", i+1, def.Name, err)
				}
				step.RetryDelay = delay
			}
		}

		if hooks, bound := d.hooks[def.Name]; bound {
			step.Condition = hooks.Condition
			step.TransformInput = hooks.TransformInput
			step.TransformOutput = hooks.TransformOutput
			step.ErrorHandler = hooks.ErrorHandler
		}

		steps = append(steps, step)
	}

	return NewChain(communicator, steps, opts...)
}
