package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/mr-karan/zosavro/internal/source"
	"github.com/mr-karan/zosavro/pkg/decoder"
	"github.com/mr-karan/zosavro/pkg/layout"
	"github.com/tidwall/redcon"
	"github.com/zerodha/logf"
)

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
)

type App struct {
	lo     logf.Logger
	opener *source.Opener
	layout *layout.Layout
	dec    *decoder.Decoder

	maxRecords int64
	timeout    time.Duration

	records atomic.Int64
	errors  atomic.Int64
	bytes   atomic.Int64
	conns   atomic.Int64
}

func main() {
	ko, err := initConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	lo := initLogger(ko)

	l, dec, err := initLayout(ko)
	if err != nil {
		lo.Fatal("error loading layout", "error", err)
	}

	app := &App{
		lo:         lo,
		opener:     initSource(ko),
		layout:     l,
		dec:        dec,
		maxRecords: ko.Int64("app.max_records"),
		timeout:    ko.Duration("app.decode_timeout"),
	}

	mux := redcon.NewServeMux()
	mux.HandleFunc("ping", app.ping)
	mux.HandleFunc("quit", app.quit)
	mux.HandleFunc("splits", app.splits)
	mux.HandleFunc("decode", app.decode)
	mux.HandleFunc("stats", app.stats)

	addr := ko.String("app.address")
	lo.Info("starting server", "address", addr, "layout", l.Name, "version", buildString)
	if err := redcon.ListenAndServe(addr,
		mux.ServeRESP,
		func(conn redcon.Conn) bool {
			app.conns.Add(1)
			return true
		},
		func(conn redcon.Conn, err error) {
			app.conns.Add(-1)
		},
	); err != nil {
		lo.Fatal("error starting server", "error", err)
	}
}
