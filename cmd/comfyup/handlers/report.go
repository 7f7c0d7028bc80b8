package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/report"
)

// ReportSource selects a stored report: a local file, or a run id in the
// S3 bucket of a run file.
type ReportSource struct {
	Path       string
	RunID      string
	ConfigPath string
}

// reportReader fetches reports by run id.
type reportReader interface {
	Read(ctx context.Context, runID string) (*report.Report, error)
}

var (
	readReportFile = report.ReadFile

	openReportReader = func(ctx context.Context, cfg config.S3Config) (reportReader, error) {
		s, err := report.OpenS3Sink(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
)

// ShowReport prints the summary of a stored run report.
func ShowReport(ctx context.Context, src ReportSource, _ LogOptions) error {
	rep, err := loadReport(ctx, src)
	if err != nil {
		return err
	}
	fmt.Fprint(output, renderSummary(rep))
	return nil
}

func loadReport(ctx context.Context, src ReportSource) (*report.Report, error) {
	switch {
	case src.Path != "" && src.RunID != "":
		return nil, errors.New("give either a report file or --run, not both")
	case src.Path != "":
		return readReportFile(src.Path)
	case src.RunID == "":
		return nil, errors.New("a report file or --run is required")
	}

	cfg, err := loadConfigFile(src.ConfigPath)
	if err != nil {
		return nil, err
	}
	if !cfg.Report.S3.Enabled() {
		return nil, fmt.Errorf("%s has no report.s3.bucket", src.ConfigPath)
	}
	r, err := openReportReader(ctx, cfg.Report.S3)
	if err != nil {
		return nil, err
	}
	rep, err := r.Read(ctx, src.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", src.RunID, err)
	}
	return rep, nil
}
