package commands

import (
	"errors"

	"go.uber.org/zap"

	"github.com/reconquista/mailing-sync/config"
	"github.com/reconquista/mailing-sync/failure"
	"github.com/reconquista/mailing-sync/logging"
)

const APP = "mailing-sync"

// Options holds the persistent flags shared by all commands.
type Options struct {
	Debug     bool
	BaseDir   string
	EnvFile   string
	LogFormat string

	log *zap.Logger
}

// NewOptions returns the defaults for the persistent flags.
func NewOptions() *Options {
	return &Options{
		Debug:     false,
		BaseDir:   config.DefaultBaseDir(),
		EnvFile:   "",
		LogFormat: "json",
	}
}

func (o *Options) logger() (*zap.Logger, error) {
	if o.log != nil {
		return o.log, nil
	}

	return logging.New(logging.Options{
		Debug:  o.Debug,
		Format: o.LogFormat,
	})
}

func (o *Options) envFile() string {
	if o.EnvFile != "" {
		return o.EnvFile
	}

	return config.DefaultEnvFile(o.BaseDir)
}

func (o *Options) load() (*config.Config, error) {
	return config.Load(o.BaseDir, o.envFile())
}

// logged marks an error that has already been written to the log.
type logged struct {
	error
}

func (e logged) Unwrap() error {
	return e.error
}

// Logged returns true if err was reported by a command before being returned.
func Logged(err error) bool {
	var l logged
	return errors.As(err, &l)
}

// fail logs err once, tagged with its kind, and returns it marked as logged.
func fail(log *zap.Logger, msg string, err error) error {
	kind := "unknown"
	if k := failure.KindOf(err); k != nil {
		kind = k.Error()
	}

	var e *failure.Error
	if errors.As(err, &e) && e.Err != nil {
		log.Error(msg, zap.String("kind", kind), zap.String("op", e.Op), zap.Error(e.Err))
	} else {
		log.Error(msg, zap.String("kind", kind), zap.Error(err))
	}

	return logged{err}
}
