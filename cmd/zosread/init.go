package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
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

// initConfig loads config to `ko` object. Flags given on the command line
// override the config file and the environment.
func initConfig() (*koanf.Koanf, error) {
	var (
		ko = koanf.New(".")
		f  = flag.NewFlagSet("zosread", flag.ContinueOnError)
	)

	// Configure Flags.
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	cfgPath := f.String("config", "config.sample.toml", "Path to a config file to load.")
	f.String("input", "", "Host file to read.")
	f.String("layout", "", "Layout file of the records.")
	f.String("output", "", "Directory to write parts to.")
	f.String("format", "", "Output format, jsonl or msgpack.")
	f.Int("splits", 0, "Number of splits.")
	f.Int("workers", 0, "Number of splits read at once.")

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

	flags := map[string]interface{}{}
	f.Visit(func(fl *flag.Flag) {
		if fl.Name != "config" {
			flags["job."+fl.Name] = fl.Value.String()
		}
	})
	if err := ko.Load(confmap.Provider(flags, "."), nil); err != nil {
		return nil, err
	}
	return ko, nil
}
