package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harrison/binmeta/internal/config"
	"github.com/harrison/binmeta/internal/display"
	"github.com/harrison/binmeta/internal/expander"
	"github.com/harrison/binmeta/internal/generator"
	"github.com/harrison/binmeta/internal/logger"
	"github.com/harrison/binmeta/internal/registry"
	"github.com/harrison/binmeta/internal/vault"
	"github.com/spf13/cobra"
)

// session is everything a command needs to operate on one vault.
type session struct {
	root     string
	cfg      *config.Config
	vault    *vault.FS
	registry *registry.Registry
	logger   logger.Logger
	pipeline *generator.Pipeline
}

// vaultRoot resolves the --vault flag.
func vaultRoot(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("vault")
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolve vault directory: %w", err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return config.FindVaultHome(cwd)
}

// loadConfig resolves the vault and loads its validated config.
func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	root, err := vaultRoot(cmd)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return "", nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		if err := cfg.Set("log_level", level); err != nil {
			return "", nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid config %s: %w", config.ConfigPath(root), err)
	}
	return root, cfg, nil
}

// openSession builds the generation pipeline for the command's vault.
func openSession(cmd *cobra.Command) (*session, error) {
	root, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newSession(cmd.Context(), root, cfg, cmd.ErrOrStderr())
}

func newSession(ctx context.Context, root string, cfg *config.Config, errOut io.Writer) (*session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	v, err := vault.NewFS(root)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(config.RegistryPath(root)).Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewConsoleLogger(errOut, cfg.LogLevel)

	expanders := expander.NewRegistry()
	if len(cfg.Expander.Command) > 0 {
		expanders.Register(expander.TemplaterID, expander.NewCommand(cfg.Expander.Command, root, cfg.Expander.Timeout))
	} else if cfg.UseExpander {
		log.LogWarn("use_expander is enabled but expander.command is empty")
	}

	matcher := cfg.Matcher()
	p, err := generator.New(generator.Options{
		Vault:     v,
		Matcher:   matcher,
		Registry:  reg,
		Expanders: expanders,
		Notifier:  display.NewWriterNotifier(errOut),
		Logger:    log,
		Settings: generator.Settings{
			AutoDetection:  cfg.AutoDetection,
			Folder:         cfg.Folder,
			FilenameFormat: cfg.FilenameFormat,
			TemplatePath:   cfg.TemplatePath,
			UseExpander:    cfg.UseExpander,
			Retry:          cfg.RetryOptions(),
		},
	})
	if err != nil {
		return nil, err
	}

	return &session{
		root:     root,
		cfg:      cfg,
		vault:    v,
		registry: reg,
		logger:   log,
		pipeline: p,
	}, nil
}
