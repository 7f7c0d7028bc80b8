package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/platform/s3"
	"github.com/comfyup/comfyup/internal/provisioning"
)

// Sink stores a report.
type Sink interface {
	// Name describes the destination for logs.
	Name() string
	Write(ctx context.Context, r *Report) error
}

// FileSink writes the report as JSON to a local path.
type FileSink struct {
	Path string
}

// Name implements Sink.
func (s *FileSink) Name() string {
	return s.Path
}

// Write implements Sink.
func (s *FileSink) Write(_ context.Context, r *Report) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ObjectStore is the subset of the S3 client used by S3Sink.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Sink uploads the report to <prefix>/<run id>.json in a bucket.
type S3Sink struct {
	store  ObjectStore
	bucket string
	prefix string
}

// NewS3Sink creates an S3Sink over store.
func NewS3Sink(store ObjectStore, bucket, prefix string) *S3Sink {
	return &S3Sink{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// OpenS3Sink connects to the bucket described by cfg.
func OpenS3Sink(ctx context.Context, cfg config.S3Config) (*S3Sink, error) {
	client, err := s3.NewClient(ctx, cfg.Endpoint, cfg.Region, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	return NewS3Sink(client, cfg.Bucket, cfg.Prefix), nil
}

// Key returns the object key of a run's report.
func (s *S3Sink) Key(runID string) string {
	return path.Join(s.prefix, runID+".json")
}

// Name implements Sink.
func (s *S3Sink) Name() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

// Write implements Sink. The bucket must already exist.
func (s *S3Sink) Write(ctx context.Context, r *Report) error {
	exists, err := s.store.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}

	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return s.store.PutObject(ctx, s.bucket, s.Key(r.RunID), "application/json", data)
}

// Read fetches the report of runID.
func (s *S3Sink) Read(ctx context.Context, runID string) (*Report, error) {
	data, err := s.store.GetObject(ctx, s.bucket, s.Key(runID))
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Sinks returns the sinks configured in cfg.
func Sinks(ctx context.Context, cfg config.ReportConfig) ([]Sink, error) {
	var sinks []Sink
	if cfg.Path != "" {
		sinks = append(sinks, &FileSink{Path: cfg.Path})
	}
	if cfg.S3.Enabled() {
		s, err := OpenS3Sink(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// WriteAll writes r to every sink. A failing sink does not stop the
// others; all failures are returned together.
func WriteAll(ctx context.Context, r *Report, sinks []Sink, observer provisioning.Observer) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Write(ctx, r); err != nil {
			observer.Warnf("[report] %s: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		observer.Printf("[report] written to %s", s.Name())
	}
	return errors.Join(errs...)
}
