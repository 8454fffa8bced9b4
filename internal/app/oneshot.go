package app

import (
	"context"
	"fmt"
	"io"

	"github.com/wayfare/learnctl/internal/models"
)

// RunOnce starts a single orchestration run against query and blocks until
// every stage completes or one errors, writing a progress line per
// completed stage to out. Intended for the CLI's "orchestrate" subcommand,
// where there is no HTTP client polling session events.
func RunOnce(ctx context.Context, cfg *Config, query string, out io.Writer) (*models.LearningSession, error) {
	c, err := build(cfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	id := c.orch.Start(query)
	for _, name := range models.StageOrder {
		if _, err := c.orch.ExecuteAgent(ctx, id, name, query); err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		fmt.Fprintf(out, "stage %s completed\n", name)
	}

	return c.orch.Get(id)
}

// RebuildIndex rescans the vault from disk and rebuilds the Link Engine,
// reporting how many notes were indexed and which wikilink targets are
// dangling. It does not start the HTTP host or the fsnotify watcher.
func RebuildIndex(cfg *Config) (notes int, dangling map[string][]string, err error) {
	c, err := build(cfg)
	if err != nil {
		return 0, nil, err
	}
	defer c.Close()

	links, err := scanVault(c.provider)
	if err != nil {
		return 0, nil, fmt.Errorf("scan vault: %w", err)
	}
	c.engine.Rebuild(links)
	return len(links), c.engine.DanglingLinks(), nil
}
