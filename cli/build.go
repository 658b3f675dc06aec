package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// BuildVersion is recorded in build metadata.
const BuildVersion = "1.0.0"

// BuildInfo is the build metadata written by build-info.
type BuildInfo struct {
	Timestamp string   `json:"timestamp"`
	Version   string   `json:"version"`
	Contracts []string `json:"contracts"`
	Status    string   `json:"status"`
}

// WriteBuildInfo writes build-info.json into dir and returns its path.
func WriteBuildInfo(dir string, now time.Time) (string, error) {
	info := BuildInfo{
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Version:   BuildVersion,
		Contracts: []string{"Treasury"},
		Status:    "built",
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create build dir: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "build-info.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write build info: %w", err)
	}
	return path, nil
}

func (a *App) buildInfoCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "build-info",
		Short: "Write build metadata to build/build-info.json",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.println("Building treasury project...")
			path, err := WriteBuildInfo(dir, a.Now())
			if err != nil {
				return err
			}
			a.println("Build completed successfully!")
			a.printFields([][2]string{{"Build info written to", path}})
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "build", "Output directory")
	return cmd
}
