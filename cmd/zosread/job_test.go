package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-karan/zosavro/internal/sink"
	"github.com/mr-karan/zosavro/internal/source"
	"github.com/mr-karan/zosavro/internal/testutil"
	"github.com/mr-karan/zosavro/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerodha/logf"
	"gopkg.in/yaml.v3"
)

func TestJobRun(t *testing.T) {
	assert := assert.New(t)

	l, err := layout.Load("../../pkg/layout/testdata/custdat.yaml")
	require.NoError(t, err)

	var recs [][]byte
	for i := 0; i < 30; i++ {
		recs = append(recs, testutil.Customer(t, int64(2000+i), fmt.Sprintf("CUSTOMER %d", i), i%6))
	}
	dir := t.TempDir()
	input := filepath.Join(dir, "custdat.bin")
	require.NoError(t, os.WriteFile(input, bytes.Join(recs, nil), 0o644))

	j := newJob(logf.New(logf.Opts{}), source.New(source.S3Config{}), l)
	j.Input = input
	j.Output = filepath.Join(dir, "out")
	j.Splits = 6
	j.Workers = 3

	m, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(int64(30), m.Records)
	assert.Zero(m.Errors)
	assert.Len(m.Parts, 6)

	t.Run("Parts", func(t *testing.T) {
		var ids []int
		for i, p := range m.Parts {
			assert.Equal(sink.PartName(i, sink.JSONL), p.File)

			f, err := os.Open(filepath.Join(j.Dir(), p.File))
			require.NoError(t, err)
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				var line struct {
					Record struct {
						CustomerId int `json:"CustomerId"`
					} `json:"record"`
				}
				require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
				ids = append(ids, line.Record.CustomerId)
			}
			f.Close()
		}
		require.Len(t, ids, 30)
		for i, id := range ids {
			assert.Equal(2000+i, id)
		}
	})

	t.Run("Manifest", func(t *testing.T) {
		b, err := os.ReadFile(filepath.Join(j.Dir(), manifestFile))
		require.NoError(t, err)
		var got Manifest
		require.NoError(t, yaml.Unmarshal(b, &got))
		assert.Equal(j.ID, got.ID)
		assert.Equal("custdat", got.Layout)
		assert.Equal(m.Records, got.Records)
		assert.Len(got.Parts, 6)
	})

	t.Run("Unlocked", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(j.Dir(), "zosavro.lock"))
		assert.True(os.IsNotExist(err))
	})
}

func TestJobLocked(t *testing.T) {
	l, err := layout.Load("../../pkg/layout/testdata/custdat.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	input := filepath.Join(dir, "custdat.bin")
	require.NoError(t, os.WriteFile(input, testutil.Customer(t, 1, "A", 0), 0o644))

	j := newJob(logf.New(logf.Opts{}), source.New(source.S3Config{}), l)
	j.Input = input
	j.Output = dir
	require.NoError(t, os.MkdirAll(j.Dir(), 0o755))

	lock, err := sink.LockDir(j.Dir())
	require.NoError(t, err)
	defer sink.UnlockDir(lock)

	_, err = j.Run(context.Background())
	assert.Error(t, err)
}
