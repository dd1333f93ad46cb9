// Package source opens host files for reading from a given offset. Files
// are named by URI: a local path, file:///path or s3://bucket/key.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
)

// S3Client is the part of the S3 API used to read objects.
type S3Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Config holds configuration for reading from S3.
type S3Config struct {
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers.
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// Opener opens local files and S3 objects.
type Opener struct {
	cfg S3Config

	mu sync.Mutex
	s3 S3Client
}

// New returns an Opener. The S3 client is created on first use from the
// default AWS credential chain.
func New(cfg S3Config) *Opener {
	return &Opener{cfg: cfg}
}

// NewWithClient returns an Opener reading S3 objects through c.
func NewWithClient(c S3Client) *Opener {
	return &Opener{s3: c}
}

// Open returns a reader positioned at offset.
func (o *Opener) Open(ctx context.Context, uri string, offset int64) (io.ReadCloser, error) {
	if offset < 0 {
		return nil, errors.Newf("negative offset %d", offset)
	}
	loc, err := parse(uri)
	if err != nil {
		return nil, err
	}
	if loc.path != "" {
		return openFile(loc.path, offset)
	}

	c, err := o.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.bucket),
		Key:    aws.String(loc.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-", offset)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s from offset %d", uri, offset)
	}
	return out.Body, nil
}

// Size returns the length of the file in bytes.
func (o *Opener) Size(ctx context.Context, uri string) (int64, error) {
	loc, err := parse(uri)
	if err != nil {
		return 0, err
	}
	if loc.path != "" {
		fi, err := os.Stat(loc.path)
		if err != nil {
			return 0, errors.Wrapf(err, "stat %s", uri)
		}
		return fi.Size(), nil
	}

	c, err := o.client(ctx)
	if err != nil {
		return 0, err
	}
	out, err := c.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.bucket),
		Key:    aws.String(loc.key),
	})
	if err != nil {
		return 0, errors.Wrapf(err, "head %s", uri)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (o *Opener) client(ctx context.Context) (S3Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.s3 != nil {
		return o.s3, nil
	}

	var opts []func(*config.LoadOptions) error
	if o.cfg.Region != "" {
		opts = append(opts, config.WithRegion(o.cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	var s3Opts []func(*s3.Options)
	if o.cfg.Endpoint != "" {
		endpoint := o.cfg.Endpoint
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.BaseEndpoint = &endpoint
		})
	}
	if o.cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.UsePathStyle = true
		})
	}
	o.s3 = s3.NewFromConfig(awsConfig, s3Opts...)
	return o.s3, nil
}

func openFile(path string, offset int64) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "seeking %s to %d", path, offset)
	}
	// Only a hint; reading works regardless.
	_ = adviseSequential(f, offset)
	return f, nil
}

// location is either a local path or an S3 object.
type location struct {
	path        string
	bucket, key string
}

func parse(uri string) (location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		path := strings.TrimPrefix(uri, "file://")
		if path == "" {
			return location{}, errors.New("empty file name")
		}
		return location{path: path}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return location{}, errors.Newf("invalid S3 URI %q, expected s3://bucket/key", uri)
	}
	return location{bucket: bucket, key: key}, nil
}
