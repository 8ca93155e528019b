package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/config"
	logpkg "github.com/yuyuan/litportal/internal/logger"
	"github.com/yuyuan/litportal/internal/transport/api"
)

type rootOptions struct {
	env    string
	apiURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "litportal",
		Short: "Browse and read literature managed by the literature backend",
		Long: `litportal serves the literature list and detail pages over HTTP and
offers the same list/detail views from the terminal. All data comes from
the literature backend API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "literature backend base URL (overrides api.base_url)")

	cmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads config/<env>.yaml and applies the --api override. Without
// a config file the override alone is enough.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.env)
	if err != nil {
		if o.apiURL == "" {
			return config.Config{}, err
		}
		cfg = config.Config{}
		cfg.ApplyDefaults()
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

func newAPIClient(cfg config.Config, logger *zap.Logger) (*api.Client, error) {
	client, err := api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   time.Duration(cfg.API.TimeoutSec) * time.Second,
		UserAgent: cfg.API.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return client, nil
}

// cliSetup builds the config, a quiet logger and the API client for the
// terminal commands.
func (o *rootOptions) cliSetup() (config.Config, *zap.Logger, *api.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("create logger: %w", err)
	}
	client, err := newAPIClient(cfg, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, client, nil
}
