package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mr-karan/zosavro/internal/job"
	"github.com/mr-karan/zosavro/internal/source"
	"github.com/mr-karan/zosavro/pkg/decoder"
	"github.com/mr-karan/zosavro/pkg/layout"
	"github.com/zerodha/logf"
)

// initLogger initializes logger instance.
func initLogger(ko *koanf.Koanf) logf.Logger {
	opts := logf.Opts{EnableCaller: true}
	if ko.String("app.log") == "debug" {
		opts.Level = logf.DebugLevel
		opts.EnableColor = true
	}
	return logf.New(opts)
}

// initConfig loads config to `ko` object.
func initConfig() (*koanf.Koanf, error) {
	var (
		ko = koanf.New(".")
		f  = flag.NewFlagSet("server", flag.ContinueOnError)
	)

	// Configure Flags.
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	// Register `--config` flag.
	cfgPath := f.String("config", "config.sample.toml", "Path to a config file to load.")

	// Parse and Load Flags.
	err := f.Parse(os.Args[1:])
	if err != nil {
		return nil, err
	}

	err = ko.Load(file.Provider(*cfgPath), toml.Parser())
	if err != nil {
		return nil, err
	}
	err = ko.Load(env.Provider("ZOSAVRO_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ZOSAVRO_")), "__", ".", -1)
	}), nil)
	if err != nil {
		return nil, err
	}
	return ko, nil
}

// initLayout loads the layout file and builds the decoder shared by all
// connections.
func initLayout(ko *koanf.Koanf) (*layout.Layout, *decoder.Decoder, error) {
	l, err := layout.Load(ko.String("app.layout"))
	if err != nil {
		return nil, nil, err
	}
	dec, err := job.NewDecoder(l)
	if err != nil {
		return nil, nil, err
	}
	return l, dec, nil
}

// initSource returns the opener for local files and S3 objects.
func initSource(ko *koanf.Koanf) *source.Opener {
	return source.New(source.S3Config{
		Region:       ko.String("s3.region"),
		Endpoint:     ko.String("s3.endpoint"),
		UsePathStyle: ko.Bool("s3.use_path_style"),
	})
}
