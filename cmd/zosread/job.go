package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/internal/job"
	"github.com/mr-karan/zosavro/internal/sink"
	"github.com/mr-karan/zosavro/internal/source"
	"github.com/mr-karan/zosavro/internal/split"
	"github.com/mr-karan/zosavro/pkg/layout"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/segmentio/ksuid"
	"github.com/zerodha/logf"
	"gopkg.in/yaml.v3"
)

const manifestFile = "manifest.yaml"

// Job converts one host file into parts, one per split.
type Job struct {
	ID      string
	Input   string
	Layout  *layout.Layout
	Output  string
	Format  sink.Format
	Splits  int
	Workers int

	lo     logf.Logger
	opener *source.Opener
}

// Manifest describes the parts written by a job.
type Manifest struct {
	ID       string    `yaml:"id"`
	Input    string    `yaml:"input"`
	Layout   string    `yaml:"layout"`
	Format   string    `yaml:"format"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`
	Records  int64     `yaml:"records"`
	Errors   int64     `yaml:"errors"`
	Bytes    int64     `yaml:"bytes"`
	Parts    []Part    `yaml:"parts"`
}

// Part is the output of one split.
type Part struct {
	File    string `yaml:"file"`
	Start   int64  `yaml:"start"`
	End     int64  `yaml:"end"`
	Records int64  `yaml:"records"`
	Errors  int64  `yaml:"errors"`
	Skipped int64  `yaml:"skipped"`
}

func newJob(lo logf.Logger, opener *source.Opener, l *layout.Layout) *Job {
	return &Job{
		ID:      ksuid.New().String(),
		Layout:  l,
		Format:  sink.JSONL,
		Splits:  1,
		Workers: 1,
		lo:      lo,
		opener:  opener,
	}
}

// Dir is the directory the parts of the job are written to.
func (j *Job) Dir() string {
	return filepath.Join(j.Output, j.ID)
}

// Run reads every split of the input and writes the manifest once all
// parts are complete.
func (j *Job) Run(ctx context.Context) (*Manifest, error) {
	dec, err := job.NewDecoder(j.Layout)
	if err != nil {
		return nil, err
	}

	size, err := j.opener.Size(ctx, j.Input)
	if err != nil {
		return nil, err
	}
	maxLen := dec.MaxLen()
	if j.Layout.RDW {
		maxLen += rdw.PrefixLen
	}
	splits, err := split.Plan(size, j.Splits, maxLen)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(j.Dir(), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", j.Dir())
	}
	lock, err := sink.LockDir(j.Dir())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sink.UnlockDir(lock); err != nil {
			j.lo.Error("error releasing output lock", "error", err)
		}
	}()

	m := &Manifest{
		ID:      j.ID,
		Input:   j.Input,
		Layout:  j.Layout.Name,
		Format:  string(j.Format),
		Started: time.Now().UTC(),
		Parts:   make([]Part, len(splits)),
	}
	j.lo.Info("starting job", "id", j.ID, "input", j.Input, "size", size, "splits", len(splits))

	var (
		mu sync.Mutex
		in = job.Input{
			Opener:  j.opener,
			URI:     j.Input,
			Layout:  j.Layout,
			Decoder: dec,
			Logger:  &j.lo,
		}
	)
	err = split.Run(ctx, j.Workers, splits, func(ctx context.Context, s split.Split) error {
		name := sink.PartName(s.Index, j.Format)
		st, err := j.part(ctx, in, s, name)
		if err != nil {
			return err
		}

		mu.Lock()
		m.Parts[s.Index] = Part{
			File:    name,
			Start:   s.Start,
			End:     s.End,
			Records: st.Records,
			Errors:  st.Errors,
			Skipped: st.Skipped,
		}
		m.Records += st.Records
		m.Errors += st.Errors
		m.Bytes += st.Bytes
		mu.Unlock()

		j.lo.Debug("wrote part", "file", name, "records", st.Records, "errors", st.Errors)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Finished = time.Now().UTC()
	if err := j.writeManifest(m); err != nil {
		return nil, err
	}
	j.lo.Info("finished job", "id", j.ID, "records", m.Records, "errors", m.Errors, "took", m.Finished.Sub(m.Started))
	return m, nil
}

func (j *Job) part(ctx context.Context, in job.Input, s split.Split, name string) (job.Stats, error) {
	f, err := os.Create(filepath.Join(j.Dir(), name))
	if err != nil {
		return job.Stats{}, errors.Wrapf(err, "creating part %s", name)
	}
	w, err := sink.New(f, j.Format)
	if err != nil {
		f.Close()
		return job.Stats{}, err
	}

	st, err := in.Read(ctx, s, w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return st, err
}

func (j *Job) writeManifest(m *Manifest) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	path := filepath.Join(j.Dir(), manifestFile)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
