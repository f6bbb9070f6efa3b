package engine

import (
	"maps"
	"slices"
	"strings"

	"github.com/janpfeifer/rlloop/internal/parameters"
	"github.com/pkg/errors"
)

// Module creates engines from their parameters.
// The module should pop the parameters it uses (see parameters.PopParamOr): any left over
// parameter is reported as an error by New.
type Module interface {
	NewEngine(params parameters.Params) (Engine, error)
}

// ModuleFunc adapts a function to a Module.
type ModuleFunc func(params parameters.Params) (Engine, error)

// NewEngine implements Module.
func (fn ModuleFunc) NewEngine(params parameters.Params) (Engine, error) { return fn(params) }

var (
	// Registered engine modules.
	keywordToModules = make(map[string]Module)

	// DefaultConfig is used if no engine configuration is given.
	DefaultConfig = "random"
)

// RegisterModule so it can be selected with the --engine flag.
// Typically, called from an init() function.
func RegisterModule(name string, module Module) {
	keywordToModules[name] = module
}

// Modules returns the sorted names of the registered modules.
func Modules() []string {
	return slices.Sorted(maps.Keys(keywordToModules))
}

// New creates an engine given the configuration string.
//
// The configuration is the module name, optionally followed by a colon (":") and a comma-separated list
// of parameters with optional values, e.g. "exec:bin=python3 main.py". If empty, DefaultConfig is used.
func New(config string) (Engine, error) {
	if config == "" {
		config = DefaultConfig
	}
	moduleName, moduleConfig, _ := strings.Cut(config, ":")
	module, ok := keywordToModules[moduleName]
	if !ok {
		return nil, errors.Errorf("unknown engine %q, registered engines are %q", moduleName, Modules())
	}
	params := parameters.NewFromConfigString(moduleConfig)
	e, err := module.NewEngine(params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create engine %q", moduleName)
	}
	if err := parameters.CheckAllConsumed(params, "engine "+moduleName); err != nil {
		return nil, err
	}
	return e, nil
}
