package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// NewBatchProgress creates a progress bar for a multi-file operation.
// Output is suppressed when total is too small to be worth a bar.
func NewBatchProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if total < 2 {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// NewWaitProgress creates an indeterminate spinner for a bounded wait,
// such as a remote file materialization.
func NewWaitProgress(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
