package main

import (
	"strings"

	"github.com/koding/multiconfig"
	"github.com/pkg/errors"
)

// Config is loaded from struct tag defaults, an optional config file, the
// PMSBENCH_* environment and command line flags, in that order.
type Config struct {
	// Workers is the worker count of the parallel sort; 0 means GOMAXPROCS.
	Workers    int
	Sizes      []int  `default:"100000,1000000"`
	Iterations int    `default:"3"`
	Seed       int64  `default:"1"`
	Scheduler  string `default:"barrier"`
	Mode       string `default:"double"`
	Strict     bool
	PoolSize   int

	LogLevel    string `default:"info"`
	Development bool

	// MetricsAddr serves /metrics while the benchmark runs, if set.
	MetricsAddr string
}

// Load reads the configuration. A -config path in args selects a .toml,
// .conf, .json or .yaml file; the remaining args are parsed as flags.
func Load(args []string) (*Config, error) {
	fpath, args, err := splitConfigFlag(args)
	if err != nil {
		return nil, err
	}

	loaders := []multiconfig.Loader{
		&multiconfig.TagLoader{},
	}
	if fpath != "" {
		switch {
		case strings.HasSuffix(fpath, "toml"), strings.HasSuffix(fpath, "conf"):
			loaders = append(loaders, &multiconfig.TOMLLoader{Path: fpath})
		case strings.HasSuffix(fpath, "json"):
			loaders = append(loaders, &multiconfig.JSONLoader{Path: fpath})
		case strings.HasSuffix(fpath, "yaml"):
			loaders = append(loaders, &multiconfig.YAMLLoader{Path: fpath})
		default:
			return nil, errors.Errorf("config file %s invalid, valid file exts: .conf,.yaml,.toml,.json", fpath)
		}
	}
	loaders = append(loaders,
		&multiconfig.EnvironmentLoader{Prefix: "PMSBENCH", CamelCase: true},
		&multiconfig.FlagLoader{CamelCase: true, Args: args},
	)

	m := multiconfig.DefaultLoader{
		Loader:    multiconfig.MultiLoader(loaders...),
		Validator: multiconfig.MultiValidator(&multiconfig.RequiredValidator{}),
	}
	c := new(Config)
	if err := m.Load(c); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := m.Validate(c); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return c, c.check()
}

func (c *Config) check() error {
	if c.Workers < 0 {
		return errors.Errorf("workers %d must not be negative", c.Workers)
	}
	if c.Iterations <= 0 {
		return errors.Errorf("iterations %d must be positive", c.Iterations)
	}
	if len(c.Sizes) == 0 {
		return errors.New("no array sizes configured")
	}
	for _, n := range c.Sizes {
		if n <= 0 {
			return errors.Errorf("array size %d must be positive", n)
		}
	}
	return nil
}

// splitConfigFlag pulls -config out of args, so the flag loader does not see
// it. The returned args are never nil: a nil slice makes the flag loader fall
// back to os.Args.
func splitConfigFlag(args []string) (string, []string, error) {
	var fpath string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name := strings.TrimLeft(arg, "-")
		switch {
		case arg != name && name == "config":
			if i+1 >= len(args) {
				return "", nil, errors.New("flag -config needs a file path")
			}
			fpath = args[i+1]
			i++
		case arg != name && strings.HasPrefix(name, "config="):
			fpath = strings.TrimPrefix(name, "config=")
		default:
			rest = append(rest, arg)
		}
	}
	return fpath, rest, nil
}
