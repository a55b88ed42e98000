// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	loadEnvFiles()
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "notedb",
		Usage: "Inspect and maintain a notes store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"NOTEDB_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (or NOTEDB_DB)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Optional config file (yaml, toml or json)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the store or upgrade it to the current version",
				Action: initCommand,
			},
			{
				Name:   "info",
				Usage:  "Show version, fingerprint, tables, indexes and counts",
				Action: infoCommand,
			},
			{
				Name:      "get",
				Usage:     "Print the records of a table matching all filters",
				ArgsUsage: "TABLE [field=value...]",
				Action:    getCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "index",
						Usage: "Look up by this index instead of scanning; needs exactly one field=value",
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Insert a record; a missing id is allocated",
				ArgsUsage: "TABLE JSON",
				Action:    addCommand,
			},
			{
				Name:      "update",
				Usage:     "Insert or replace a record",
				ArgsUsage: "TABLE JSON",
				Action:    updateCommand,
			},
			{
				Name:      "remove",
				Usage:     "Delete a record by id",
				ArgsUsage: "TABLE ID",
				Action:    removeCommand,
			},
			{
				Name:      "update-multiple",
				Usage:     "Apply a partial record to every record matching the filters",
				ArgsUsage: "TABLE JSON [field=value...]",
				Action:    updateMultipleCommand,
			},
			{
				Name:      "export",
				Usage:     "Write a table as JSON lines",
				ArgsUsage: "TABLE",
				Action:    exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Upsert the JSON lines of FILE into a table",
				ArgsUsage: "TABLE FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to write in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for a batch whose transaction failed",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 100 * time.Millisecond,
					},
				},
			},
			{
				Name:   "destroy",
				Usage:  "Drop every table and index of the store",
				Action: destroyCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the store should be dropped",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Count every table and print operation metrics",
				Action: statsCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
