package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/cli/config"
	"github.com/labbookdb/labbookdb/internal/orm/crud"
	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/query"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
	"github.com/labbookdb/labbookdb/internal/orm/store"
)

// env is the open store and logger of one command invocation
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// openEnv loads the configuration from the command's flags and opens the store
func openEnv(cmd *cobra.Command) (*env, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	opts, err := cfg.StoreOptions()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cmd.Context(), opts, schema.Labbook(), logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: s}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func (e *env) builder() *query.Builder {
	return query.NewBuilder(e.store.Registry(), e.store.Dialect(), e.logger)
}

func (e *env) resolver() *identifier.Resolver {
	return identifier.NewResolver(e.store.Registry(), e.builder(), e.logger)
}

func (e *env) constructor() *crud.Constructor {
	return crud.NewConstructor(e.store.DB(), e.store.Dialect(), e.store.Registry(), e.logger)
}

func (e *env) mutator() *crud.Mutator {
	return crud.NewMutator(e.store.DB(), e.store.Dialect(), e.store.Registry(), e.logger)
}

// readTree reads a parameter tree from a file, YAML or JSON by extension,
// or from a JSON argument
func readTree(file string, arg string) (crud.ParameterTree, error) {
	if file == "" {
		if strings.TrimSpace(arg) == "" {
			return nil, fmt.Errorf("%w: no parameters given", crud.ErrInvalidParameter)
		}
		return crud.DecodeJSON([]byte(arg))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return crud.DecodeYAML(data)
	default:
		return crud.DecodeJSON(data)
	}
}
