package progress

import (
	"os"

	"github.com/schollz/progressbar/v3"

	"NewsIngest/internal/ports"
)

// BarReporter renders per-page progress on stderr. A negative page total
// renders a spinner for unbounded runs.
type BarReporter struct {
	bar *progressbar.ProgressBar
}

var _ ports.ProgressReporter = (*BarReporter)(nil)

// NewBarReporter builds the bar up front so the first page tick is visible.
func NewBarReporter(totalPages int) *BarReporter {
	bar := progressbar.NewOptions(totalPages,
		progressbar.OptionSetDescription("Fetching API pages"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
	)
	return &BarReporter{bar: bar}
}

// PageDone advances the bar by one completed page.
func (r *BarReporter) PageDone(completed, totalPages int) {
	_ = r.bar.Add(1)
}

// Finish closes out the bar at the end of the run.
func (r *BarReporter) Finish() {
	_ = r.bar.Finish()
}
