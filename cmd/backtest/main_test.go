package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"signal-backtest-lab/internal/dataset"
	"signal-backtest-lab/internal/domain"
)

func writeDataset(t *testing.T, n int) string {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		x := float64(i)
		bars[i] = domain.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     100 + 3*math.Sin(x/4) + 0.2*x,
			Indicator: 20 + 5*math.Sin(x/2) + 2*math.Cos(x*1.3),
		}
	}

	path := filepath.Join(t.TempDir(), "bars.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, dataset.Write(f, bars))
	require.NoError(t, f.Close())
	return path
}

func TestBacktestCommand_YAMLAndTable(t *testing.T) {
	input := writeDataset(t, 48)
	table := filepath.Join(t.TempDir(), "table.csv")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--input", input,
		"--dataset-id", "synthetic",
		"--variant", "band",
		"--rolling-period", "5",
		"--z-thresh", "1",
		"--bars-per-period", "4",
		"--format", "yaml",
		"--table-csv", table,
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	var doc struct {
		DatasetID  string             `yaml:"dataset_id"`
		StrategyID string             `yaml:"strategy_id"`
		Metrics    map[string]float64 `yaml:"metrics"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "synthetic", doc.DatasetID)
	assert.Equal(t, "band_5_z1", doc.StrategyID)
	assert.Equal(t, 44.0, doc.Metrics["bar_count"])

	b, err := os.ReadFile(table)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Len(t, lines, 45) // header + post warm-up bars
}

func TestBacktestCommand_Errors(t *testing.T) {
	input := writeDataset(t, 10)

	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{}},
		{"unknown format", []string{"--input", input, "--format", "json"}},
		{"window longer than series", []string{"--input", input, "--rolling-period", "50"}},
		{"unknown variant", []string{"--input", input, "--variant", "momentum"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(append(tt.args, "--log-level", "error"))
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestBacktestCommand_TimeWindow(t *testing.T) {
	input := writeDataset(t, 48)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--input", input,
		"--from", "2023-01-01 10:00:00",
		"--to", "2023-01-01T39:00:00Z",
		"--rolling-period", "5",
		"--bars-per-period", "4",
		"--format", "yaml",
		"--log-level", "error",
	})
	assert.Error(t, cmd.Execute(), "malformed --to")

	cmd = newRootCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--input", input,
		"--from", "2023-01-01 10:00:00",
		"--to", "2023-01-02 15:00:00",
		"--rolling-period", "5",
		"--bars-per-period", "4",
		"--format", "yaml",
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	var doc struct {
		Metrics map[string]float64 `yaml:"metrics"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	// bars 10..39 inclusive, minus a 4-bar warm-up
	assert.Equal(t, 26.0, doc.Metrics["bar_count"])
}
