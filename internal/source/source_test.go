package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from memory.
type fakeS3 struct {
	objects map[string][]byte
	ranges  []string
}

func (f *fakeS3) object(bucket, key *string) ([]byte, error) {
	b, ok := f.objects[aws.ToString(bucket)+"/"+aws.ToString(key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return b, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, err := f.object(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	r := aws.ToString(in.Range)
	f.ranges = append(f.ranges, r)
	off, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(r, "bytes="), "-"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b[off:]))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	b, err := f.object(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(b)))}, nil
}

func TestLocal(t *testing.T) {
	var (
		assert = assert.New(t)
		ctx    = context.Background()
		o      = New(S3Config{})
		path   = filepath.Join(t.TempDir(), "host.dat")
	)
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	for _, uri := range []string{path, "file://" + path} {
		n, err := o.Size(ctx, uri)
		require.NoError(t, err)
		assert.Equal(int64(10), n)

		rc, err := o.Open(ctx, uri, 4)
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal("456789", string(b))
		assert.NoError(rc.Close())
	}

	t.Run("Errors", func(t *testing.T) {
		_, err := o.Open(ctx, filepath.Join(t.TempDir(), "missing"), 0)
		assert.Error(err)
		_, err = o.Size(ctx, filepath.Join(t.TempDir(), "missing"))
		assert.Error(err)
		_, err = o.Open(ctx, path, -1)
		assert.Error(err)
		_, err = o.Open(ctx, "", 0)
		assert.Error(err)
	})
}

func TestS3(t *testing.T) {
	var (
		assert = assert.New(t)
		ctx    = context.Background()
		fake   = &fakeS3{objects: map[string][]byte{"extracts/2024/custdat.bin": []byte("abcdefgh")}}
		o      = NewWithClient(fake)
	)

	n, err := o.Size(ctx, "s3://extracts/2024/custdat.bin")
	require.NoError(t, err)
	assert.Equal(int64(8), n)

	rc, err := o.Open(ctx, "s3://extracts/2024/custdat.bin", 5)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal("fgh", string(b))
	assert.Equal([]string{"bytes=5-"}, fake.ranges)

	t.Run("Errors", func(t *testing.T) {
		_, err := o.Open(ctx, "s3://extracts/missing", 0)
		assert.Error(err)
		_, err = o.Size(ctx, "s3://extracts")
		assert.Error(err)
		_, err = o.Open(ctx, "s3:///key", 0)
		assert.Error(err)
	})
}
