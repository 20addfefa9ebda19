package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridroute/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with every default spelled out",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := config.Default().Write(f); err != nil {
				f.Close()
				return fmt.Errorf("write config: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			printSuccess("Wrote %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return effective(cfg).Write(cmd.OutOrStdout())
		},
	}
}

// effective returns cfg with every unset field filled from the defaults.
func effective(cfg *config.Config) *config.Config {
	out := config.Default()
	*out.Grid.InputScale = cfg.GetInputScale()
	*out.Grid.EnlargeBoundary = cfg.GetEnlargeBoundary()
	*out.Grid.GridFactor = cfg.GetGridFactor()
	*out.Grid.MaxCells = cfg.GetMaxCells()
	*out.Cost.PinObstacleCost = cfg.GetPinObstacleCost()
	*out.Cost.TraceCost = cfg.GetTraceCost()
	*out.Cost.ViaCost = cfg.GetViaCost()
	*out.Cost.ViaStepCost = cfg.GetViaStepCost()
	*out.Cost.FailurePenalty = cfg.GetFailurePenalty()
	*out.Cost.BlockThreshold = cfg.GetBlockThreshold()
	*out.RipUp.Passes = cfg.GetPasses()
	*out.RipUp.StopWhenStable = cfg.GetStopWhenStable()
	*out.Cache.Backend = cfg.GetCacheBackend()
	*out.Cache.Dir = cfg.GetCacheDir()
	*out.Cache.RedisAddr = cfg.GetRedisAddr()
	*out.Cache.TTL = cfg.GetCacheTTL().String()
	return out
}
