// Package commands implements the leaphed CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaphed/internal/cli/config"
	"github.com/leapstack-labs/leaphed/internal/engine"
	"github.com/leapstack-labs/leaphed/internal/state"
	"github.com/leapstack-labs/leaphed/pkg/artifact"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext reads the configuration and logger stored by the root
// command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &CommandContext{
		Cfg:    config.GetConfig(ctx),
		Logger: config.GetLogger(ctx),
	}
}

// Engine creates an engine from the configuration. store may be nil.
func (c *CommandContext) Engine(store state.Store) (*engine.Engine, error) {
	mapping, err := c.Cfg.ModelMapping()
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{
		LibraryDir: c.Cfg.LibraryDir,
		Models:     c.Cfg.Models,
		Mapping:    mapping,
		Store:      store,
		Logger:     c.Logger,
	})
}

// OpenStore opens the run store, creating its directory when needed.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(ctx, c.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}

// artifactFile is an artifact read from disk.
type artifactFile struct {
	Path     string
	Artifact *artifact.Artifact
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// collectArtifacts reads the artifacts named by args. Directories are
// walked for YAML files; library documents found there are skipped since
// they are verified through the artifacts that import them.
func collectArtifacts(args []string) ([]artifactFile, error) {
	var files []artifactFile
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			a, err := artifact.ReadArtifactFile(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, artifactFile{Path: arg, Artifact: a})
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isYAML(path) {
				return nil
			}
			doc, err := artifact.ReadFile(path)
			if err != nil {
				return err
			}
			if doc.Artifact != nil {
				files = append(files, artifactFile{Path: path, Artifact: doc.Artifact})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no artifacts found in %s", strings.Join(args, ", "))
	}
	return files, nil
}
