package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/internal/job"
	"github.com/mr-karan/zosavro/internal/sink"
	"github.com/mr-karan/zosavro/internal/split"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/tidwall/redcon"
)

func (app *App) ping(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("PONG")
}

func (app *App) quit(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("OK")
	conn.Close()
}

// splits replies with the [start, end) byte ranges of SPLITS uri n.
func (app *App) splits(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 3 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}
	n, err := strconv.Atoi(string(cmd.Args[2]))
	if err != nil {
		conn.WriteError("ERR invalid split count " + string(cmd.Args[2]))
		return
	}

	ctx, cancel := app.context()
	defer cancel()
	splits, err := app.plan(ctx, string(cmd.Args[1]), n)
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}

	conn.WriteArray(len(splits))
	for _, s := range splits {
		conn.WriteArray(2)
		conn.WriteInt64(s.Start)
		conn.WriteInt64(s.End)
	}
}

// decode replies to DECODE uri [start end] [JSON|MSGPACK] with the number
// of records, the number of records that failed to decode and the encoded
// records.
func (app *App) decode(conn redcon.Conn, cmd redcon.Command) {
	var (
		uri    string
		format string
		rng    []string
	)
	switch len(cmd.Args) {
	case 2:
	case 3:
		format = string(cmd.Args[2])
	case 4:
		rng = []string{string(cmd.Args[2]), string(cmd.Args[3])}
	case 5:
		rng = []string{string(cmd.Args[2]), string(cmd.Args[3])}
		format = string(cmd.Args[4])
	default:
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}
	uri = string(cmd.Args[1])

	f, err := sink.ParseFormat(format)
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}

	ctx, cancel := app.context()
	defer cancel()

	s := split.Split{Last: true}
	if rng != nil {
		if s, err = app.window(ctx, uri, rng[0], rng[1]); err != nil {
			conn.WriteError(fmt.Sprintf("ERR %s", err))
			return
		}
	}

	out, st, err := app.decodeSplit(ctx, uri, s, f)
	if err != nil {
		conn.WriteError(fmt.Sprintf("ERR %s", err))
		return
	}

	conn.WriteArray(3)
	conn.WriteInt64(st.Records)
	conn.WriteInt64(st.Errors)
	conn.WriteBulk(out)
}

func (app *App) stats(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteBulkString(app.info())
}

func (app *App) context() (context.Context, context.CancelFunc) {
	if app.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), app.timeout)
}

func (app *App) maxRecordLen() int {
	if app.layout.RDW {
		return app.dec.MaxLen() + rdw.PrefixLen
	}
	return app.dec.MaxLen()
}

func (app *App) plan(ctx context.Context, uri string, n int) ([]split.Split, error) {
	size, err := app.opener.Size(ctx, uri)
	if err != nil {
		return nil, err
	}
	return split.Plan(size, n, app.maxRecordLen())
}

// window is the split of uri owning the records that start in [start, end).
func (app *App) window(ctx context.Context, uri, start, end string) (split.Split, error) {
	var (
		s   split.Split
		err error
	)
	if s.Start, err = strconv.ParseInt(start, 10, 64); err != nil {
		return s, errors.Newf("invalid start %s", start)
	}
	if s.End, err = strconv.ParseInt(end, 10, 64); err != nil {
		return s, errors.Newf("invalid end %s", end)
	}
	if s.Start < 0 || s.End <= s.Start {
		return s, errors.Newf("invalid range %d to %d", s.Start, s.End)
	}

	size, err := app.opener.Size(ctx, uri)
	if err != nil {
		return s, err
	}
	s.Last = s.End >= size
	return s, nil
}

func (app *App) decodeSplit(ctx context.Context, uri string, s split.Split, f sink.Format) ([]byte, job.Stats, error) {
	var buf bytes.Buffer
	w, err := sink.New(&buf, f)
	if err != nil {
		return nil, job.Stats{}, err
	}

	in := job.Input{
		Opener:     app.opener,
		URI:        uri,
		Layout:     app.layout,
		Decoder:    app.dec,
		Logger:     &app.lo,
		MaxRecords: app.maxRecords,
	}
	st, err := in.Read(ctx, s, w)
	app.records.Add(st.Records)
	app.errors.Add(st.Errors)
	app.bytes.Add(st.Bytes)
	if err != nil {
		return nil, st, err
	}
	if err := w.Close(); err != nil {
		return nil, st, err
	}

	app.lo.Debug("decoded split", "uri", uri, "start", s.Start, "end", s.End, "records", st.Records, "errors", st.Errors)
	return buf.Bytes(), st, nil
}

func (app *App) info() string {
	return fmt.Sprintf("layout:%s\r\nrecords:%d\r\nerrors:%d\r\nbytes:%d\r\nconnections:%d\r\n",
		app.layout.Name, app.records.Load(), app.errors.Load(), app.bytes.Load(), app.conns.Load())
}
