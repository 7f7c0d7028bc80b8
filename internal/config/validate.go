package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the run file for errors that would otherwise surface
// only after a workload has been paid for.
func (c *Config) Validate() error {
	if c.Workload.Type == "" {
		return fmt.Errorf("workload.type is required")
	}
	if c.Workload.Hours <= 0 {
		return fmt.Errorf("workload.hours must be positive, got %v", c.Workload.Hours)
	}

	if err := validateQueries("nodes", c.Nodes); err != nil {
		return err
	}
	if err := validateQueries("models", c.Models); err != nil {
		return err
	}

	for i, u := range c.GitHubNodes {
		if err := validateURL(u); err != nil {
			return fmt.Errorf("github_nodes[%d]: %w", i, err)
		}
	}

	for i, m := range c.URLModels {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("url_models[%d]: %w", i, err)
		}
	}

	if c.Downloader.TimeoutS < 0 {
		return fmt.Errorf("downloader.timeout_s must not be negative")
	}
	if c.Downloader.Retries < 0 {
		return fmt.Errorf("downloader.retries must not be negative")
	}

	if s := c.Report.S3; s.Endpoint != "" || s.Prefix != "" {
		if s.Bucket == "" {
			return fmt.Errorf("report.s3.bucket is required when report.s3 is set")
		}
	}

	return nil
}

// ValidateCredentials checks that the credentials needed to lease a
// workload are present.
func (c *Config) ValidateCredentials() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s is not set", EnvAPIKey)
	}
	if c.Report.S3.Enabled() && (c.Report.S3.AccessKey == "") != (c.Report.S3.SecretKey == "") {
		return fmt.Errorf("%s and %s must be set together", EnvS3AccessKey, EnvS3SecretKey)
	}
	return nil
}

// Validate checks that a URL model names its source and destination.
func (m URLModel) Validate() error {
	if err := validateURL(m.URL); err != nil {
		return err
	}
	if strings.TrimSpace(m.Filename) == "" {
		return errors.New("filename is required")
	}
	if strings.TrimSpace(m.Subfolder) == "" {
		return errors.New("subfolder is required")
	}
	if strings.ContainsAny(m.Filename, `/\`) {
		return fmt.Errorf("filename %q must not contain a path separator", m.Filename)
	}
	return nil
}

func validateQueries(field string, queries []string) error {
	for i, q := range queries {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
