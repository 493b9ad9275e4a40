package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/hogwarts-cloud/fleetplan/config"
	"github.com/hogwarts-cloud/fleetplan/internal/classifier"
	"github.com/hogwarts-cloud/fleetplan/internal/deployer"
	"github.com/hogwarts-cloud/fleetplan/internal/hardware"
	"github.com/hogwarts-cloud/fleetplan/internal/incus"
	"github.com/hogwarts-cloud/fleetplan/internal/logging"
	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/hogwarts-cloud/fleetplan/internal/network"
	"github.com/hogwarts-cloud/fleetplan/internal/planner"
	"github.com/hogwarts-cloud/fleetplan/internal/source"
	incusclient "github.com/lxc/incus/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	path       string
	fleet      string
	deployerID string
	branch     string
	verbose    bool
)

var root = &cobra.Command{
	Use:   "fleetplan",
	Short: "Plan virtual Ardana CI fleets",
}

var plan = &cobra.Command{
	Use:   "plan",
	Short: "Print the plan of a fleet as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fleetPlan, logger, _, err := buildPlan(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(fleetPlan); err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}

		return encoder.Close()
	},
}

var validate = &cobra.Command{
	Use:   "validate",
	Short: "Check that a plan can be built for the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fleetPlan, logger, _, err := buildPlan(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		logger.Info("fleet is valid",
			zap.String("fleet", fleetPlan.Fleet),
			zap.String("source", fleetPlan.Source),
			zap.Int("nodes", len(fleetPlan.Nodes)),
		)

		return nil
	},
}

var define = &cobra.Command{
	Use:   "define",
	Short: "Define the fleet's virtual machines in Incus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fleetPlan, logger, cfg, err := buildPlan(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		server, err := incusclient.ConnectIncusUnix("", nil)
		if err != nil {
			return fmt.Errorf("failed to connect to incus: %w", err)
		}

		incus, err := incus.New(incus.Config{
			Server:  server.UseProject(cfg.Incus.Project),
			Pool:    cfg.Incus.Pool,
			Network: cfg.Incus.Network,
		})
		if err != nil {
			return fmt.Errorf("failed to create incus client: %w", err)
		}

		deployer := deployer.New(incus, logger)

		result, err := deployer.Deploy(cmd.Context(), fleetPlan)
		if err != nil {
			return fmt.Errorf("failed to define fleet: %w", err)
		}

		logger.Info("fleet defined",
			zap.Strings("defined", result.Defined),
			zap.Strings("skipped", result.Skipped),
		)

		return nil
	},
}

func buildPlan(cmd *cobra.Command) (*models.FleetPlan, *zap.Logger, config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(verbose || cfg.Verbose)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	toolRoot := cfg.ToolRoot
	if toolRoot == "" {
		if toolRoot, err = os.Getwd(); err != nil {
			return nil, nil, config.Config{}, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	overrides := cfg.ModelOverrides()

	pool, err := network.NewPoolFromOverrides(overrides)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("failed to load ipv6 pool: %w", err)
	}

	builder := planner.New(planner.Config{
		Source: source.New(source.Config{
			Explicit:      cfg.Servers,
			ToolRoot:      toolRoot,
			ToolRemote:    cfg.ToolRemote,
			ModelRemote:   cfg.ModelRemote,
			SchemaVersion: cfg.SchemaVersion,
			RefModelTag:   cfg.RefModelTag,
			Client:        &http.Client{Timeout: cfg.FetchTimeout},
			Logger:        logger,
		}),
		Classifier: classifier.New(),
		Hardware:   hardware.New(overrides),
		Network: network.New(network.Config{
			Provider:  cfg.Provider,
			Modifier:  cfg.VIPModifier,
			Overrides: overrides,
			Pool:      pool,
		}),
		Overrides:      overrides,
		Branch:         branch,
		IdleInterfaces: cfg.IdleInterfaces,
		Logger:         logger,
	})

	fleetPlan, err := builder.Build(cmd.Context(), fleet, deployerID)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("failed to build plan for fleet %s: %w", fleet, err)
	}

	return fleetPlan, logger, cfg, nil
}

func init() {
	root.PersistentFlags().StringVar(&path, "path", "", "Path to directory with fleetplan.yaml")
	root.PersistentFlags().StringVar(&fleet, "fleet", "", "Name of the CI fleet")
	root.PersistentFlags().StringVar(&deployerID, "deployer", "", "Server id of the deployer node")
	root.PersistentFlags().StringVar(&branch, "branch", "", "Branch of the input model to fetch")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log rejected descriptor candidates")
	root.MarkPersistentFlagRequired("fleet")
	root.MarkPersistentFlagRequired("deployer")
	root.AddCommand(plan, validate, define)
}

func main() {
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
