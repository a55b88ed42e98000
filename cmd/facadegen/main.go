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

// Command facadegen writes the per-entity methods of notedb.Database from
// the default schema.
package main

import (
	"log"
	"os"

	"github.com/poiesic/notedb/schema"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "facadegen",
		Usage: "Generate the per-entity Database methods from the schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output file",
				Value: "facade.gen.go",
			},
			&cli.StringFlag{
				Name:  "package",
				Usage: "Package name of the generated file",
				Value: "notedb",
			},
		},
		Action: func(c *cli.Context) error {
			src, err := generate(c.String("package"), schema.Default())
			if err != nil {
				return err
			}
			return os.WriteFile(c.String("out"), src, 0644)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
