package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Halewood/shoebox/internal/cli"
)

func openCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <record>",
		Short: "Open a record's file with the default application",
		Long: `Hand the record's file to the operating system's opener. A file that is
offloaded to remote storage is downloaded first; the wait is bounded by
the configured download timeout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.findEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry.IsPlaceholder {
				return fmt.Errorf("%q is a placeholder with no file attached", entry.Document.Name)
			}

			target := entry.Path
			if entry.IsFolder {
				if primary := entry.Document.PrimaryAttachment(); primary != nil {
					target = filepath.Join(entry.Path, primary.Filename)
				}
			}

			if !entry.Availability.Local() {
				bar := cli.NewWaitProgress(os.Stderr, fmt.Sprintf("downloading %s", entry.Document.Name))
				err := a.tracker.EnsureAvailable(cmd.Context(), target, a.settings.DownloadTimeout)
				_ = bar.Finish()
				if err != nil {
					return fmt.Errorf("failed to materialize %s: %w", target, err)
				}
				a.engine.SetDownloading(target, false)
			}

			if err := openWithOS(target); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Opened %q", entry.Document.Name)))
			return nil
		},
	}

	return cmd
}

// openWithOS launches the platform opener for a path.
func openWithOS(path string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", path)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		c = exec.Command("xdg-open", path)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}
