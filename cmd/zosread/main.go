package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mr-karan/zosavro/internal/sink"
	"github.com/mr-karan/zosavro/internal/source"
	"github.com/mr-karan/zosavro/pkg/layout"
)

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
)

func main() {
	ko, err := initConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	lo := initLogger(ko)

	l, err := layout.Load(ko.String("job.layout"))
	if err != nil {
		lo.Fatal("error loading layout", "error", err)
	}
	format, err := sink.ParseFormat(ko.String("job.format"))
	if err != nil {
		lo.Fatal("error reading config", "error", err)
	}

	opener := source.New(source.S3Config{
		Region:       ko.String("s3.region"),
		Endpoint:     ko.String("s3.endpoint"),
		UsePathStyle: ko.Bool("s3.use_path_style"),
	})

	j := newJob(lo, opener, l)
	j.Input = ko.String("job.input")
	j.Output = ko.String("job.output")
	j.Format = format
	j.Splits = max(ko.Int("job.splits"), 1)
	j.Workers = max(ko.Int("job.workers"), 1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lo.Debug("zosread", "version", buildString, "job", j.ID)
	m, err := j.Run(ctx)
	if err != nil {
		stop()
		lo.Fatal("error running job", "id", j.ID, "error", err)
	}
	fmt.Println(j.Dir())
	if m.Errors > 0 {
		os.Exit(2)
	}
}
