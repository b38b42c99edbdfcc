// Command sprited inspects and maintains saved history files: footprint
// stats, forced compression, replay verification, a SQLite archive of
// snapshots, and a headless autosaving session host.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dquill/sprited/internal/config"
	"github.com/dquill/sprited/internal/engine"
	"github.com/dquill/sprited/internal/engine/grid"
	"github.com/dquill/sprited/internal/engine/history"
	"github.com/dquill/sprited/internal/logger"
	"github.com/dquill/sprited/internal/persist"
)

const (
	defaultArchive = "sprited-archive.db"
	defaultConfig  = "sprited.toml"
)

// cfg is the loaded configuration, set once in Before.
var cfg = config.Default()

func main() {
	app := &cli.App{
		Name:    "sprited",
		Usage:   "inspect and maintain sprited history files",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   defaultConfig,
				Usage:   "path to the config file (missing file uses defaults)",
				EnvVars: []string{"SPRITED_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error); overrides the config",
				EnvVars: []string{"SPRITED_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			loaded, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			cfg = loaded

			out := io.Writer(os.Stderr)
			if cfg.Logging.File != "" {
				f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				out = f
			}
			logger.Init(resolveLogLevel(c.IsSet("log-level"), c.String("log-level"), cfg), out)
			return nil
		},
		Commands: []*cli.Command{
			statsCommand(),
			compactCommand(),
			verifyCommand(),
			archiveCommand(),
			sessionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sprited:", err)
		os.Exit(1)
	}
}

// resolveLogLevel lets an explicit --log-level (flag or env) win over the
// config file.
func resolveLogLevel(flagSet bool, flag string, cfg config.Config) string {
	if flagSet {
		return flag
	}
	if cfg.Logging.Level != "" {
		return cfg.Logging.Level
	}
	return "info"
}

// canvasDims prefers the envelope's recorded canvas size and falls back to
// the configured canvas for files saved without dimensions.
func canvasDims(env persist.Envelope, cfg config.Config) (int, int, error) {
	if env.Width > 0 && env.Height > 0 {
		return env.Width, env.Height, nil
	}
	if cfg.Canvas.Width > 0 && cfg.Canvas.Height > 0 {
		return cfg.Canvas.Width, cfg.Canvas.Height, nil
	}
	return 0, 0, fmt.Errorf("history file has no canvas dimensions")
}

// loadStore reads a history file into a store sized to hold it.
func loadStore(path string) (*history.Store, persist.Envelope, error) {
	env, err := persist.ReadFile(path)
	if err != nil {
		return nil, persist.Envelope{}, err
	}
	store := history.NewStore(len(env.Records)+1, 0)
	store.Load(env.Records)
	return store, env, nil
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Print the memory footprint of a history file",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				cli.ShowCommandHelpAndExit(c, "stats", 1)
			}

			store, env, err := loadStore(c.Args().First())
			if err != nil {
				return err
			}

			stats := store.MemoryUsage()
			fmt.Printf("session:    %s\n", env.Session)
			fmt.Printf("canvas:     %dx%d\n", env.Width, env.Height)
			fmt.Printf("commands:   %d (%d compressed)\n", stats.CommandCount, stats.CompressedCount)
			fmt.Printf("bytes:      %d (%.2f MB)\n", stats.TotalBytes, float64(stats.TotalBytes)/(1024*1024))
			for i, entry := range store.Entries() {
				state := "plain"
				if entry.Compressed {
					state = "packed"
				}
				fmt.Printf("  %3d  %-11s %-6s %6d B  %s\n",
					i, entry.Kind, state, entry.Bytes, entry.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func compactCommand() *cli.Command {
	return &cli.Command{
		Name:      "compact",
		Usage:     "Compress a history file in place",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "apply-policy",
				Usage: "apply the configured history policy (evict past max_commands, sweep by compression_age) instead of packing everything",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				cli.ShowCommandHelpAndExit(c, "compact", 1)
			}
			path := c.Args().First()

			store, env, err := loadStore(path)
			if err != nil {
				return err
			}

			before := store.MemoryUsage()
			if c.Bool("apply-policy") {
				store.SetMaxCommands(cfg.History.MaxCommands)
				store.SetCompressionAge(cfg.History.CompressionAge)
			} else {
				store.Compact()
			}
			after := store.MemoryUsage()

			records, err := store.Save()
			if err != nil {
				return err
			}
			if err := persist.WriteFile(path, persist.Envelope{
				Session: env.Session,
				Width:   env.Width,
				Height:  env.Height,
				Records: records,
			}); err != nil {
				return err
			}

			fmt.Printf("compacted %d commands: %d B -> %d B\n", after.CommandCount, before.TotalBytes, after.TotalBytes)
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Replay a history file forward and back, checking it returns to a blank canvas",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				cli.ShowCommandHelpAndExit(c, "verify", 1)
			}

			store, env, err := loadStore(c.Args().First())
			if err != nil {
				return err
			}
			w, h, err := canvasDims(env, cfg)
			if err != nil {
				return err
			}

			g := grid.New(w, h)
			blank := g.Clone()

			store.Rewind()
			applied := 0
			for {
				ok, err := store.Redo(g)
				if err != nil {
					return fmt.Errorf("replay forward at step %d: %w", applied, err)
				}
				if !ok {
					break
				}
				applied++
			}

			unwound := 0
			for {
				ok, err := store.Undo(g)
				if err != nil {
					return fmt.Errorf("unwind at step %d: %w", unwound, err)
				}
				if !ok {
					break
				}
				unwound++
			}

			if !g.Equal(blank) {
				return fmt.Errorf("canvas did not return to blank after %d steps", applied)
			}
			fmt.Printf("ok: %d commands replayed and unwound cleanly\n", applied)
			return nil
		},
	}
}

func archiveCommand() *cli.Command {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Value:   defaultArchive,
		Usage:   "path to the archive database",
		EnvVars: []string{"SPRITED_ARCHIVE"},
	}

	return &cli.Command{
		Name:  "archive",
		Usage: "Manage the SQLite archive of history snapshots",
		Subcommands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "Archive a history file under a document name",
				ArgsUsage: "DOCUMENT FILE",
				Flags:     []cli.Flag{dbFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						cli.ShowCommandHelpAndExit(c, "save", 1)
					}

					env, err := persist.ReadFile(c.Args().Get(1))
					if err != nil {
						return err
					}

					arc, err := persist.OpenArchive(c.String("db"))
					if err != nil {
						return err
					}
					defer arc.Close()

					id, err := arc.Save(c.Args().First(), env)
					if err != nil {
						return err
					}
					fmt.Printf("archived %q as snapshot %d (%d commands)\n", c.Args().First(), id, len(env.Records))
					return nil
				},
			},
			{
				Name:      "list",
				Usage:     "List archived snapshots, newest first",
				ArgsUsage: "[DOCUMENT]",
				Flags:     []cli.Flag{dbFlag},
				Action: func(c *cli.Context) error {
					arc, err := persist.OpenArchive(c.String("db"))
					if err != nil {
						return err
					}
					defer arc.Close()

					infos, err := arc.List(c.Args().First())
					if err != nil {
						return err
					}
					for _, info := range infos {
						fmt.Printf("%4d  %-20s %dx%d  %s\n",
							info.ID, info.Document, info.Width, info.Height,
							info.SavedAt.Format("2006-01-02 15:04:05"))
					}
					return nil
				},
			},
			{
				Name:      "restore",
				Usage:     "Write the newest archived snapshot of a document to a history file",
				ArgsUsage: "DOCUMENT FILE",
				Flags:     []cli.Flag{dbFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						cli.ShowCommandHelpAndExit(c, "restore", 1)
					}

					arc, err := persist.OpenArchive(c.String("db"))
					if err != nil {
						return err
					}
					defer arc.Close()

					env, err := arc.Restore(c.Args().First())
					if err != nil {
						return err
					}
					if err := persist.WriteFile(c.Args().Get(1), env); err != nil {
						return err
					}
					fmt.Printf("restored %q: %d commands from %s\n",
						c.Args().First(), len(env.Records), env.SavedAt.Format("2006-01-02 15:04:05"))
					return nil
				},
			},
		},
	}
}

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Host an editing session that autosaves its history and archives it on shutdown",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Value:   defaultArchive,
				Usage:   "path to the archive database",
				EnvVars: []string{"SPRITED_ARCHIVE"},
			},
		},
		Action: func(c *cli.Context) error {
			if !cfg.Autosave.Enabled {
				return fmt.Errorf("autosave is disabled; enable [autosave] in the config to host a session")
			}

			e := engine.New(
				engine.WithGridSize(cfg.Canvas.Width, cfg.Canvas.Height),
				engine.WithMaxCommands(cfg.History.MaxCommands),
				engine.WithCompressionAge(cfg.History.CompressionAge),
			)
			if _, err := os.Stat(cfg.Autosave.Path); err == nil {
				n, err := e.LoadHistory(cfg.Autosave.Path)
				if err != nil {
					return err
				}
				logger.Infof("session %s: resumed %d commands from %s", e.ID(), n, cfg.Autosave.Path)
			}

			// Live-apply config edits to the running session.
			watcher, err := config.NewWatcher(c.String("config"), func(next config.Config) {
				e.ApplyHistoryPolicy(next.History.MaxCommands, next.History.CompressionAge)
				logger.Init(next.Logging.Level, os.Stderr)
			})
			if err != nil {
				return err
			}
			defer watcher.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(time.Duration(cfg.Autosave.IntervalSec) * time.Second)
			defer ticker.Stop()

			logger.Infof("session %s: autosaving %q to %s every %ds",
				e.ID(), cfg.Autosave.Document, cfg.Autosave.Path, cfg.Autosave.IntervalSec)
			for {
				select {
				case <-ticker.C:
					if err := e.SaveHistory(cfg.Autosave.Path); err != nil {
						logger.Errorf("session: autosave failed: %v", err)
					}
				case <-ctx.Done():
					if err := e.SaveHistory(cfg.Autosave.Path); err != nil {
						return err
					}
					env, err := persist.ReadFile(cfg.Autosave.Path)
					if err != nil {
						return err
					}
					arc, err := persist.OpenArchive(c.String("db"))
					if err != nil {
						return err
					}
					defer arc.Close()
					id, err := arc.Save(cfg.Autosave.Document, env)
					if err != nil {
						return err
					}
					logger.Infof("session %s: archived %q as snapshot %d", e.ID(), cfg.Autosave.Document, id)
					return nil
				}
			}
		},
	}
}
