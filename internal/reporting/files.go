package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"signal-backtest-lab/internal/domain"
)

// WriteSweepFiles writes <prefix>_<metric>.csv for every sweep metric and
// <prefix>_report.md into dir, creating dir if needed.
func WriteSweepFiles(dir, prefix string, r *SweepReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, m := range domain.SweepMetrics {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, m))
		if err := os.WriteFile(path, []byte(RenderMatrixCSV(r.Result, m)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	path := filepath.Join(dir, prefix+"_report.md")
	if err := os.WriteFile(path, []byte(RenderSweepMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
