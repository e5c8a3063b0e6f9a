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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/poiesic/talentmatch"
	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/ranking"
	"github.com/poiesic/talentmatch/store/postgres"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "talentmatch",
		Usage: "Candidate matching over structured employee records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank candidates for a free-text query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "variant",
						Usage: "Ranking variant (tiered, single-pass, criteria-based)",
						Value: string(ranking.VariantTiered),
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Show at most N candidates",
						Value: 20,
					},
				),
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild codebooks and every compact profile",
				Action: rebuildCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "precompute",
				Usage:  "Precompute embeddings for every employee",
				Action: precomputeCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "codebooks",
				Usage:  "Print the current codebooks",
				Action: codebooksCommand,
				Flags:  engineFlags(),
			},
			{
				Name:      "seed",
				Usage:     "Load employees from a JSON file into the database",
				ArgsUsage: "<employees.json>",
				Action:    seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Aliases:  []string{"d"},
						Usage:    "Postgres connection string for the system of record",
						Required: true,
						EnvVars:  []string{"TALENTMATCH_DATABASE_URL"},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Aliases:  []string{"d"},
			Usage:    "Postgres connection string for the system of record",
			Required: true,
			EnvVars:  []string{"TALENTMATCH_DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:  "cache-mode",
			Usage: "Cache backend (auto, redis, local, disk)",
			Value: string(cache.ModeAuto),
		},
		&cli.StringFlag{
			Name:  "redis-addr",
			Usage: "Redis address for auto and redis cache modes",
			Value: "localhost:6379",
		},
		&cli.StringFlag{
			Name:  "disk-path",
			Usage: "Cache directory for disk cache mode",
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "reasoner-model",
			Usage: "Reasoning model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openEngine(c *cli.Context, opts ...talentmatch.EngineOption) (*talentmatch.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithReasonerModel(c.String("reasoner-model")),
	)
	aiConfig.Normalize()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	cacheConfig := cache.DefaultConfig()
	cacheConfig.Mode = cache.Mode(c.String("cache-mode"))
	cacheConfig.DiskPath = c.String("disk-path")
	cacheConfig.Redis.Addr = c.String("redis-addr")

	opts = append(opts,
		talentmatch.WithDatabaseURL(c.String("database-url")),
		talentmatch.WithAIConfig(aiConfig),
		talentmatch.WithCacheConfig(cacheConfig),
	)
	return talentmatch.NewEngine(c.Context, opts...)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	policy := ranking.DefaultPolicy()
	policy.Variant = ranking.Variant(c.String("variant"))
	switch policy.Variant {
	case ranking.VariantTiered, ranking.VariantSinglePass, ranking.VariantCriteria:
	default:
		return fmt.Errorf("unknown ranking variant %q", c.String("variant"))
	}

	engine, err := openEngine(c, talentmatch.WithRankingPolicy(policy))
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Search(c.Context, query)
	if err != nil {
		return err
	}

	if result.Degraded {
		fmt.Fprintf(os.Stderr, "degraded result: %s\n", strings.Join(result.Reasons, "; "))
	}

	limit := c.Int("top")
	for i, cand := range result.Candidates {
		if limit > 0 && i >= limit {
			fmt.Printf("... and %d more\n", len(result.Candidates)-limit)
			break
		}
		fmt.Printf("%2d. tier %d  %5.1f  %-24s %s (%s)\n",
			i+1, cand.Tier, cand.Score, cand.Profile.Name, cand.Justification, cand.Method)
	}
	return nil
}

func rebuildCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.RebuildProfiles(c.Context)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Printf("rebuilt %d compact profiles\n", count)
	return nil
}

func precomputeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.PrecomputeEmbeddings(c.Context)
	if err != nil {
		return fmt.Errorf("precompute failed: %w", err)
	}
	fmt.Printf("embedded %d employees\n", count)
	return nil
}

func codebooksCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	books := engine.Codebooks(c.Context)
	printBook := func(name string, book map[string]string) {
		fmt.Printf("%s (%d):\n", name, len(book))
		keys := make([]string, 0, len(book))
		for k := range book {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-4s %s\n", book[k], k)
		}
	}

	printBook("departments", books.Departments)
	printBook("designations", books.Designations)
	printBook("locations", books.Locations)
	printBook("projects", books.Projects)
	if !books.Generation.IsZero() {
		fmt.Printf("generation: %s\n", books.Generation.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a JSON file of employees is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	var employees []*core.Employee
	if err := json.Unmarshal(data, &employees); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	st, err := postgres.Open(c.Context, c.String("database-url"))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(c.Context); err != nil {
		return err
	}
	count, err := st.Seed(c.Context, employees)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Printf("seeded %d employees\n", count)
	return nil
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
