// Command springls runs spring level set scenarios.
//
//	springls run --scenario torus --field enright --motion semi-implicit -o out
//	springls config --write springls.yaml
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soypat/springls/internal/config"
	"github.com/soypat/springls/internal/logger"
	"github.com/soypat/springls/internal/sim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "springls",
		Short:         "Spring level set surface tracking",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newConfigCmd())
	return root
}

// loadConfig merges defaults, the config file and changed flags.
func loadConfig(flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(flags.Path())
	if err != nil {
		return nil, err
	}
	if err := flags.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func newRunCmd() *cobra.Command {
	var flags *config.Flags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Advect a seed surface and stash frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Info("starting",
				zap.String("scenario", cfg.Simulation.Scenario),
				zap.String("field", cfg.Simulation.Field),
				zap.Stringer("motion", cfg.Simulation.Motion),
				zap.Stringer("temporal", cfg.Simulation.Temporal),
				zap.Int("resolution", cfg.Simulation.Resolution),
			)
			s, err := sim.New(cfg, log)
			if err != nil {
				return err
			}
			if err := s.Run(ctx); err != nil {
				log.Error("simulation aborted", zap.Error(err))
				return err
			}
			return nil
		},
	}
	flags = config.RegisterFlags(cmd.Flags())
	return cmd
}

func newConfigCmd() *cobra.Command {
	var (
		flags  *config.Flags
		output string
		asTOML bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or write the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if output != "" {
				return cfg.SaveTo(output)
			}
			data, err := cfg.Marshal(asTOML)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	flags = config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVarP(&output, "write", "w", "", "write configuration to file instead of printing, format follows extension")
	cmd.Flags().BoolVar(&asTOML, "toml", false, "print as TOML")
	return cmd
}

