package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteYAML writes cfg to path with a descriptive header.
func WriteYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(path))
	sb.WriteString("\n")
	sb.Write(data)

	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func generateHeader(path string) string {
	return fmt.Sprintf(`# comfyup run file
# Generated by: comfyup init
# Generated at: %s
#
# Required environment variable:
#   %s - Your Comput3 API key
#
# Usage:
#   export %s=<your-key>
#   comfyup run -c %s
`, time.Now().Format(time.RFC3339), EnvAPIKey, EnvAPIKey, path)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite asks the user whether an existing file may be replaced.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

func defaultConfirmOverwrite(path string) (bool, error) {
	overwrite := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
		Value(&overwrite).
		Run()
	if err != nil {
		return false, err
	}
	return overwrite, nil
}
