package config

// Defaults applied by LoadFile and the wizard.
const (
	DefaultWorkloadType  = "media:fast"
	DefaultWorkloadHours = 1.0

	DefaultDownloaderTimeoutS  = 120
	DefaultDownloaderRetries   = 3
	DefaultDownloaderUserAgent = "ComfyUI-DaimalyadModelDownloader/1.0"

	// RequiredExtensionURL is installed on every run before any user
	// GitHub extension. It provides the model downloader node.
	RequiredExtensionURL = "https://github.com/apeirography/daimalyadnodes"
)

// Environment variables holding credentials.
const (
	EnvAPIKey      = "COMPUT3_API_KEY"
	EnvUserKey     = "COMFY_USER_KEY"
	EnvS3AccessKey = "COMFYUP_S3_ACCESS_KEY"
	EnvS3SecretKey = "COMFYUP_S3_SECRET_KEY"
)

// Config is one provisioning run.
type Config struct {
	Workload    WorkloadConfig   `mapstructure:"workload" yaml:"workload"`
	Nodes       []string         `mapstructure:"nodes" yaml:"nodes,omitempty"`
	Models      []string         `mapstructure:"models" yaml:"models,omitempty"`
	GitHubNodes []string         `mapstructure:"github_nodes" yaml:"github_nodes,omitempty"`
	URLModels   []URLModel       `mapstructure:"url_models" yaml:"url_models,omitempty"`
	Downloader  DownloaderConfig `mapstructure:"downloader" yaml:"downloader,omitempty"`
	Report      ReportConfig     `mapstructure:"report" yaml:"report,omitempty"`
	MetricsFile string           `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`

	// Credentials come from the environment only.
	APIKey  string `mapstructure:"-" yaml:"-"`
	UserKey string `mapstructure:"-" yaml:"-"`
}

// WorkloadConfig selects the leased GPU workload.
type WorkloadConfig struct {
	Type  string  `mapstructure:"type" yaml:"type"`
	Hours float64 `mapstructure:"hours" yaml:"hours"`
}

// URLModel is a model file that is not in the manager whitelist and must be
// fetched from its URL.
type URLModel struct {
	URL       string `mapstructure:"url" yaml:"url"`
	Filename  string `mapstructure:"filename" yaml:"filename"`
	Subfolder string `mapstructure:"subfolder" yaml:"subfolder"`
	SHA256    string `mapstructure:"sha256" yaml:"sha256,omitempty"`
}

// DownloaderConfig overrides the inputs of the fallback download workflow.
type DownloaderConfig struct {
	// Overwrite is a pointer so an explicit false survives defaulting.
	Overwrite *bool  `mapstructure:"overwrite" yaml:"overwrite,omitempty"`
	TimeoutS  int    `mapstructure:"timeout_s" yaml:"timeout_s,omitempty"`
	Retries   int    `mapstructure:"retries" yaml:"retries,omitempty"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent,omitempty"`
}

// ShouldOverwrite reports the effective overwrite flag.
func (d DownloaderConfig) ShouldOverwrite() bool {
	return d.Overwrite == nil || *d.Overwrite
}

// WithDefaults returns d with unset fields filled in.
func (d DownloaderConfig) WithDefaults() DownloaderConfig {
	if d.TimeoutS == 0 {
		d.TimeoutS = DefaultDownloaderTimeoutS
	}
	if d.Retries == 0 {
		d.Retries = DefaultDownloaderRetries
	}
	if d.UserAgent == "" {
		d.UserAgent = DefaultDownloaderUserAgent
	}
	return d
}

// ReportConfig controls where the run report is written.
type ReportConfig struct {
	Path string   `mapstructure:"path" yaml:"path,omitempty"`
	S3   S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config is an S3-compatible bucket receiving the run report.
type S3Config struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region   string `mapstructure:"region" yaml:"region,omitempty"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix,omitempty"`

	AccessKey string `mapstructure:"-" yaml:"-"`
	SecretKey string `mapstructure:"-" yaml:"-"`
}

// Enabled reports whether a bucket was configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// ItemCount is the number of install items the run will attempt,
// including the required extension.
func (c *Config) ItemCount() int {
	return len(c.Nodes) + len(c.Models) + 1 + len(c.GitHubNodes) + len(c.URLModels)
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Workload.Type == "" {
		c.Workload.Type = DefaultWorkloadType
	}
	if c.Workload.Hours == 0 {
		c.Workload.Hours = DefaultWorkloadHours
	}
	c.Downloader = c.Downloader.WithDefaults()
}

// ApplyEnv copies credentials from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := lookup(EnvUserKey); ok {
		c.UserKey = v
	}
	if c.UserKey == "" {
		c.UserKey = c.APIKey
	}
	if v, ok := lookup(EnvS3AccessKey); ok {
		c.Report.S3.AccessKey = v
	}
	if v, ok := lookup(EnvS3SecretKey); ok {
		c.Report.S3.SecretKey = v
	}
}
