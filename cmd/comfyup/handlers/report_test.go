package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/report"
)

type fakeReader struct {
	reports map[string]*report.Report
}

func (f *fakeReader) Read(_ context.Context, runID string) (*report.Report, error) {
	r, ok := f.reports[runID]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return r, nil
}

func TestShowReport_File(t *testing.T) {
	out := saveAndRestoreFactories(t)
	readReportFile = func(path string) (*report.Report, error) {
		assert.Equal(t, "reports/run.json", path)
		return &report.Report{RunID: "r-file"}, nil
	}

	err := ShowReport(context.Background(), ReportSource{Path: "reports/run.json"}, LogOptions{})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "comfyup run r-file")
}

func TestShowReport_S3(t *testing.T) {
	out := saveAndRestoreFactories(t)
	useConfig(&config.Config{Report: config.ReportConfig{S3: config.S3Config{Bucket: "runs"}}})
	openReportReader = func(_ context.Context, cfg config.S3Config) (reportReader, error) {
		assert.Equal(t, "runs", cfg.Bucket)
		return &fakeReader{reports: map[string]*report.Report{"r-s3": {RunID: "r-s3"}}}, nil
	}

	err := ShowReport(context.Background(), ReportSource{RunID: "r-s3", ConfigPath: "comfyup.yaml"}, LogOptions{})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "comfyup run r-s3")
}

func TestShowReport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     ReportSource
		bucket  string
		wantErr string
	}{
		{name: "no source", src: ReportSource{}, wantErr: "a report file or --run is required"},
		{name: "both sources", src: ReportSource{Path: "a.json", RunID: "r"}, wantErr: "not both"},
		{name: "no bucket", src: ReportSource{RunID: "r", ConfigPath: "comfyup.yaml"}, wantErr: "has no report.s3.bucket"},
		{name: "unknown run", src: ReportSource{RunID: "missing", ConfigPath: "comfyup.yaml"}, bucket: "runs", wantErr: "failed to read report missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveAndRestoreFactories(t)
			useConfig(&config.Config{Report: config.ReportConfig{S3: config.S3Config{Bucket: tt.bucket}}})
			openReportReader = func(context.Context, config.S3Config) (reportReader, error) {
				return &fakeReader{}, nil
			}

			err := ShowReport(context.Background(), tt.src, LogOptions{})

			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
