package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	domainconfig "kgview/domain/config"
	"kgview/domain/core/aggregates"
	"kgview/domain/layout"
	domainservices "kgview/domain/services"
	"kgview/domain/snapshot"
	"kgview/infrastructure/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// snapshotSaver writes a snapshot to the knowledge store
type snapshotSaver interface {
	Save(ctx context.Context, snap *snapshot.Snapshot) error
}

// app carries the state shared by all subcommands
type app struct {
	out    io.Writer
	errOut io.Writer

	snapshotPath string
	layoutPath   string
	environment  string
	verbose      bool

	logger     *zap.Logger
	domain     *domainconfig.DomainConfig
	layoutFile *config.LayoutFile

	// newSaver builds the store used by seed
	newSaver func(ctx context.Context, table, userID string) (snapshotSaver, error)
}

func newApp(out, errOut io.Writer) *app {
	a := &app{out: out, errOut: errOut, logger: zap.NewNop()}
	a.newSaver = a.dynamoSaver
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "graphctl",
		Short: "Inspect knowledge graph snapshots offline",
		Long: `graphctl loads a knowledge graph snapshot file (or the built-in sample) and
runs the layout, inference, statistics and content analysis used by the API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.snapshotPath, "snapshot", "s", "", "snapshot JSON file, - for stdin (default is the built-in sample)")
	flags.StringVar(&a.layoutPath, "layout-config", "", "layout YAML file with planar, volumetric and inference sections")
	flags.StringVar(&a.environment, "env", "development", "domain configuration profile")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(
		newLayoutCmd(a),
		newInferCmd(a),
		newStatsCmd(a),
		newAnalyzeCmd(a),
		newSeedCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		a.logger = logger
	}

	a.domain = domainconfig.LoadDomainConfig(a.environment)
	if a.layoutPath != "" {
		file, err := config.LoadLayoutFile(a.layoutPath)
		if err != nil {
			return err
		}
		file.ApplyTo(a.domain)
		a.layoutFile = file
	}
	return a.domain.Validate()
}

// readSnapshot returns the configured snapshot, or nil for the built-in sample
func (a *app) readSnapshot(in io.Reader) (*snapshot.Snapshot, error) {
	var data []byte
	var err error
	switch a.snapshotPath {
	case "":
		return nil, nil
	case "-":
		data, err = io.ReadAll(in)
	default:
		data, err = os.ReadFile(a.snapshotPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snapshot.Decode(data)
}

// buildGraph ingests the configured snapshot, falling back to the sample
func (a *app) buildGraph(in io.Reader) (*aggregates.Graph, domainservices.IngestReport, error) {
	snap, err := a.readSnapshot(in)
	if err != nil {
		return nil, domainservices.IngestReport{}, err
	}
	graph, report := domainservices.NewGraphBuilder(nil, a.domain).Build(snap)
	if report.UsedFallback {
		a.logger.Debug("Using built-in sample graph")
	}
	return graph, report, nil
}

func (a *app) inferencer() domainservices.RelationshipInferencer {
	return domainservices.NewDefaultRelationshipInferencer(domainservices.NewInferenceConfig(a.domain), nil)
}

// layoutParams returns the layout file parameters, or the defaults
func (a *app) layoutParams() layout.Params {
	if a.layoutFile != nil {
		return a.layoutFile.Layout
	}
	return layout.DefaultParams()
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
