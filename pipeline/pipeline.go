// Package pipeline runs the mailing export: fetch the query result, reformat the dates
// and replace the worksheet contents.
//
// The stages run strictly in order and the first failure ends the run. The database
// connection and the spreadsheet session are always released before Run returns.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reconquista/mailing-sync/table"
)

// Source is an open database connection.
type Source interface {
	Query(ctx context.Context, query string) (*table.Table, error)
	Close() error
}

// Publisher is an authenticated spreadsheet session.
type Publisher interface {
	Clear(ctx context.Context, spreadsheet, worksheet string) error
	Insert(ctx context.Context, spreadsheet, worksheet string, t *table.Table) error
	Close() error
}

// Pipeline holds the collaborators for a run.
type Pipeline struct {
	Log          *zap.Logger
	Connect      func(ctx context.Context, connString string) (Source, error)
	Authenticate func(ctx context.Context, credentials string) (Publisher, error)
	Validate     func(t *table.Table) error
}

// Job is the input for a single run.
type Job struct {
	ConnString  string
	Query       string
	Credentials string
	Spreadsheet string
	Worksheet   string
	DryRun      bool
}

// Summary describes the table that was published.
type Summary struct {
	Rows    int
	Columns int
}

// Run executes the job. The returned error is the first stage failure, unchanged.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Summary, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("connecting to database")
	db, err := p.Connect(ctx, job.ConnString)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("error closing database connection", zap.Error(err))
		}
	}()

	log.Info("executing query")
	t, err := db.Query(ctx, job.Query)
	if err != nil {
		return nil, err
	}

	rows, columns := t.Size()
	summary := Summary{
		Rows:    rows,
		Columns: columns,
	}

	log.Info("fetched query result", zap.Int("rows", rows), zap.Int("columns", columns))

	if job.DryRun {
		log.Info("formatting dates")
		t.FormatDates()

		log.Info("dry run - worksheet not updated", zap.String("worksheet", job.Worksheet))
		return &summary, nil
	}

	log.Info("connecting to Google Sheets")
	client, err := p.Authenticate(ctx, job.Credentials)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("error closing Google Sheets session", zap.Error(err))
		}
	}()

	log.Info("formatting dates")
	t.FormatDates()

	if p.Validate != nil {
		if err := p.Validate(t); err != nil {
			return nil, err
		}
	}

	log.Info("clearing worksheet", zap.String("worksheet", job.Worksheet))
	if err := client.Clear(ctx, job.Spreadsheet, job.Worksheet); err != nil {
		return nil, err
	}

	log.Info("inserting data into worksheet", zap.String("worksheet", job.Worksheet))
	if err := client.Insert(ctx, job.Spreadsheet, job.Worksheet, t); err != nil {
		return nil, err
	}

	return &summary, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("%d rows x %d columns", s.Rows, s.Columns)
}
