// Package experiment runs named procedures of the receptor model, as declared
// in the experiments section of the config.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pthm-cable/odorsampling/config"
)

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrTooManyArgs     = errors.New("too many arguments")
	ErrUnknownParam    = errors.New("unknown parameter")
	ErrDuplicate       = errors.New("already registered")
)

// Param declares one named argument of a procedure. Default builds a fresh
// value for each call and may read the loaded config.
type Param struct {
	Name    string
	Doc     string
	Default func(cfg *config.Config) any
}

// Spec is a registered procedure.
type Spec struct {
	Name        string
	Description string
	Params      []Param
	Run         func(ctx context.Context, env *Env, args Args) (Result, error)
}

func (s Spec) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Bind checks args against the declared parameters and fills the missing ones
// from their defaults.
func (s Spec) Bind(cfg *config.Config, args map[string]any) (Args, error) {
	if len(args) > len(s.Params) {
		return nil, fmt.Errorf("%s: %w: got %d, takes %d", s.Name, ErrTooManyArgs, len(args), len(s.Params))
	}
	for name := range args {
		if _, ok := s.param(name); !ok {
			return nil, fmt.Errorf("%s: %w: %s", s.Name, ErrUnknownParam, name)
		}
	}

	bound := make(Args, len(s.Params))
	for _, p := range s.Params {
		if v, ok := args[p.Name]; ok {
			bound[p.Name] = v
			continue
		}
		if p.Default != nil {
			bound[p.Name] = p.Default(cfg)
		}
	}
	return bound, nil
}

// Registry maps function names to procedures.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Spec)}
}

// Builtin returns a registry holding every procedure this package provides.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(occVsLocSpec())
	r.MustRegister(effVsLocSpec())
	r.MustRegister(effAnalysisSpec())
	r.MustRegister(makeEpitheliumSpec())
	return r
}

func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return errors.New("function name is required")
	}
	if spec.Run == nil {
		return fmt.Errorf("function %s: run is required", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[spec.Name]; exists {
		return fmt.Errorf("function %s: %w", spec.Name, ErrDuplicate)
	}
	r.m[spec.Name] = spec
	return nil
}

func (r *Registry) MustRegister(spec Spec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Spec, error) {
	r.mu.RLock()
	spec, ok := r.m[name]
	r.mu.RUnlock()
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return spec, nil
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckCall validates one call without running it.
func (r *Registry) CheckCall(call config.CallConfig) error {
	spec, err := r.Lookup(call.Function)
	if err != nil {
		return err
	}
	if len(call.Args) > len(spec.Params) {
		return fmt.Errorf("%s: %w: got %d, takes %d", spec.Name, ErrTooManyArgs, len(call.Args), len(spec.Params))
	}
	for name := range call.Args {
		if _, ok := spec.param(name); !ok {
			return fmt.Errorf("%s: %w: %s", spec.Name, ErrUnknownParam, name)
		}
	}
	return nil
}

// Validate checks every experiment's calls against the registry and rejects
// duplicate experiment IDs. All problems are reported together.
func (r *Registry) Validate(experiments []config.ExperimentConfig) error {
	var errs []error
	seen := make(map[string]bool, len(experiments))
	for _, exp := range experiments {
		if exp.ID == "" {
			errs = append(errs, errors.New("experiment without id"))
			continue
		}
		if seen[exp.ID] {
			errs = append(errs, fmt.Errorf("experiment %s: %w", exp.ID, ErrDuplicate))
		}
		seen[exp.ID] = true
		for i, call := range exp.Calls {
			if err := r.CheckCall(call); err != nil {
				errs = append(errs, fmt.Errorf("experiment %s call %d: %w", exp.ID, i, err))
			}
		}
	}
	return errors.Join(errs...)
}
