package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reconquista/mailing-sync/config"
	"github.com/reconquista/mailing-sync/database"
	"github.com/reconquista/mailing-sync/pipeline"
	"github.com/reconquista/mailing-sync/worksheet"
)

// Sync replaces the mailing worksheet contents with the current query result.
type Sync struct {
	dryRun bool
}

func NewSyncCmd(options *Options) *cobra.Command {
	sync := Sync{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Publishes the mailing query result to the Google Sheets worksheet",
		Long: `Runs the mailing query against the configured database and replaces the contents
of the ` + config.WORKSHEET + ` worksheet with the result. Date columns are written as DD/MM/YYYY.

Intended to be run from a scheduler e.g.

  0 6 * * * /opt/mailing-sync/mailing-sync sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sync.Execute(cmd.Context(), options)
		},
	}

	cmd.Flags().BoolVar(&sync.dryRun, "dry-run", sync.dryRun, "Runs the query and reports the result size without updating the worksheet")

	return cmd
}

func (cmd *Sync) Execute(ctx context.Context, options *Options) error {
	log, err := options.logger()
	if err != nil {
		return err
	}

	defer log.Sync()

	log.Info("starting mailing export")

	cfg, err := options.load()
	if err != nil {
		return fail(log, "invalid configuration", err)
	}

	log.Info("loading query", zap.String("file", cfg.QueryFile))

	query, err := config.LoadQuery(cfg.QueryFile)
	if err != nil {
		return fail(log, "invalid configuration", err)
	}

	log.Debug("configuration",
		zap.String("basedir", cfg.BaseDir),
		zap.String("credentials", cfg.Credentials),
		zap.String("query", cfg.QueryFile),
		zap.String("worksheet", cfg.Worksheet))

	p := pipeline.Pipeline{
		Log: log,

		Connect: func(ctx context.Context, connString string) (pipeline.Source, error) {
			if db, err := database.Connect(ctx, connString); err != nil {
				return nil, err
			} else {
				return db, nil
			}
		},

		Authenticate: func(ctx context.Context, credentials string) (pipeline.Publisher, error) {
			if client, err := worksheet.Authenticate(ctx, credentials, log); err != nil {
				return nil, err
			} else {
				return client, nil
			}
		},

		Validate: worksheet.Validate,
	}

	job := pipeline.Job{
		ConnString:  cfg.ConnString,
		Query:       query,
		Credentials: cfg.Credentials,
		Spreadsheet: cfg.SpreadsheetURL,
		Worksheet:   cfg.Worksheet,
		DryRun:      cmd.dryRun,
	}

	summary, err := p.Run(ctx, job)
	if err != nil {
		return fail(log, "mailing export failed", err)
	}

	if cmd.dryRun {
		log.Info("dry run complete", zap.Stringer("result", summary))
	} else {
		log.Info("worksheet updated",
			zap.String("worksheet", cfg.Worksheet),
			zap.Int("rows", summary.Rows),
			zap.Int("columns", summary.Columns))
	}

	return nil
}
