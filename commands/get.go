package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reconquista/mailing-sync/config"
	"github.com/reconquista/mailing-sync/failure"
	"github.com/reconquista/mailing-sync/table"
	"github.com/reconquista/mailing-sync/worksheet"
)

// Get downloads the published worksheet to a TSV file.
type Get struct {
	file string
}

func NewGetCmd(options *Options) *cobra.Command {
	get := Get{
		file: defaultFile(time.Now()),
	}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Downloads the " + config.WORKSHEET + " worksheet to a TSV file",
		Args:  cobra.NoArgs,
		Example: `  mailing-sync get
  mailing-sync --debug get --file "mailing.tsv"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return get.Execute(cmd.Context(), options)
		},
	}

	cmd.Flags().StringVar(&get.file, "file", get.file, "TSV file name. Defaults to '"+config.WORKSHEET+" - <yyyy-mm-ddTHHmmss>.tsv'")

	return cmd
}

func (cmd *Get) Execute(ctx context.Context, options *Options) error {
	log, err := options.logger()
	if err != nil {
		return err
	}

	defer log.Sync()

	cfg, err := options.load()
	if err != nil {
		return fail(log, "invalid configuration", err)
	}

	client, err := worksheet.Authenticate(ctx, cfg.Credentials, log)
	if err != nil {
		return fail(log, "unable to connect to Google Sheets", err)
	}

	defer client.Close()

	values, err := client.Get(ctx, cfg.SpreadsheetURL, cfg.Worksheet)
	if err != nil {
		return fail(log, "unable to retrieve worksheet", err)
	}

	if len(values) == 0 {
		return fail(log, "unable to retrieve worksheet", failure.Errorf(failure.ErrNotFound, "no data in worksheet '%s'", cfg.Worksheet))
	}

	if err := save(cmd.file, values); err != nil {
		return fail(log, "unable to save worksheet", err)
	}

	log.Info("retrieved worksheet", zap.String("worksheet", cfg.Worksheet), zap.String("file", cmd.file), zap.Int("rows", len(values)-1))

	return nil
}

// save writes the TSV to a temporary file alongside the target and renames it, so
// that an existing file is never left half written.
func save(file string, values [][]any) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".mailing-*.tsv")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := table.WriteTSV(tmp, values); err != nil {
		return fmt.Errorf("error creating TSV file (%w)", err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}

func defaultFile(now time.Time) string {
	return fmt.Sprintf("%s - %s.tsv", config.WORKSHEET, now.Format("2006-01-02T150405"))
}
