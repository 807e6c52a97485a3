package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapmesh-go/internal/cli/output"
	"github.com/yndnr/snapmesh-go/internal/config"
	"github.com/yndnr/snapmesh-go/internal/core/domain"
	"github.com/yndnr/snapmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/snapmesh-go/internal/storage"
	"github.com/yndnr/snapmesh-go/internal/storage/snapshot"
	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "snapmesh-cli",
		Usage:   "Inspect snapshot baselines and follow live broadcasts",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ListCommand(),
			ShowCommand(),
			CheckCommand(),
			ServeCommand(),
			WatchCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"SNAPMESH_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Snapshot directory (overrides snapshot.dir)",
		},
		&cli.StringFlag{
			Name:  "ext",
			Usage: "Baseline file extension (overrides snapshot.extension)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show full values in tables",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config string
	Dir    string
	Ext    string

	// Output format
	Output string // table, json, yaml
	Wide   bool

	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		Dir:     c.String("dir"),
		Ext:     c.String("ext"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
}

// overrides maps set global flags onto configuration keys.
func (f *GlobalFlags) overrides() map[string]any {
	m := make(map[string]any)
	if f.Dir != "" {
		m["snapshot.dir"] = f.Dir
	}
	if f.Ext != "" {
		m["snapshot.extension"] = f.Ext
	}
	if f.Verbose {
		m["log.level"] = "debug"
	}
	return m
}

// loadConfig layers defaults, the config file, SNAPMESH_* variables and
// the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	flags := ParseGlobalFlags(c)
	cfg, err := config.LoadWithOverrides(flags.Config, flags.overrides())
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	return cfg, nil
}

// newLogger writes to the app's error stream so command output stays
// machine-readable.
func newLogger(c *cli.Context, cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
}

// formatter returns the formatter selected by --output.
func formatter(c *cli.Context) (output.Formatter, error) {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	return output.NewFormatter(format, flags.Wide), nil
}

// env bundles what the baseline commands need.
type env struct {
	cfg     *config.Config
	log     logger.Logger
	store   *snapshot.Store
	backend storage.Backend
	out     output.Formatter
}

func (e *env) Close() error {
	return e.backend.Close()
}

// setup opens the baseline store described by the configuration.
func setup(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(c, cfg)
	if err != nil {
		return nil, err
	}
	out, err := formatter(c)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.BadgerDir, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	codec, err := snapshot.NewCodec(cfg.Snapshot.Codec, cfg.Snapshot.Omitted())
	if err != nil {
		return nil, errors.Join(err, backend.Close())
	}
	store, err := snapshot.NewStore(snapshot.Config{
		Dir:       cfg.Snapshot.Dir,
		Extension: cfg.Snapshot.Extension,
		Codec:     codec,
		Backend:   backend,
		Logger:    log,
	})
	if err != nil {
		return nil, errors.Join(err, backend.Close())
	}

	return &env{cfg: cfg, log: log, store: store, backend: backend, out: out}, nil
}

// snapshotCount counts entries that are not metadata.
func snapshotCount(keys []string) int {
	n := 0
	for _, k := range keys {
		if !domain.IsMetaKey(k) {
			n++
		}
	}
	return n
}
