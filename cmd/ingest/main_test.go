package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-backtest-lab/internal/storage/sqlite"
)

const csvData = `time,price,netflow
2024-01-01 00:00:00,100,1.5
2024-01-01 01:00:00,101,-2
2024-01-01 02:00:00,99.5,0.25
`

func TestIngestCommand_SQLite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(input, []byte(csvData), 0o644))
	dbPath := filepath.Join(dir, "lab.db")

	ingest := func() (string, error) {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{
			"--input", input,
			"--dataset-id", "btc_1h",
			"--storage", "sqlite",
			"--sqlite-path", dbPath,
			"--log-level", "error",
		})
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := ingest()
	require.NoError(t, err)
	assert.Equal(t, "btc_1h", strings.TrimSpace(out))

	// the same bars again collide with the stored ones
	_, err = ingest()
	assert.Error(t, err)

	db, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	bars, err := sqlite.NewBarStore(db).GetByDataset(context.Background(), "btc_1h")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 99.5, bars[2].Price)
	assert.Equal(t, -2.0, bars[1].Indicator)
}

func TestIngestCommand_WriteNormalized(t *testing.T) {
	input := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(input, []byte(csvData), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--input", input, "--write-normalized", "-", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "timestamp,price,indicator\n"+
		"2024-01-01 00:00:00,100,1.5\n"+
		"2024-01-01 01:00:00,101,-2\n"+
		"2024-01-01 02:00:00,99.5,0.25\n", out.String())
}

func TestIngestCommand_RejectsUnorderedRows(t *testing.T) {
	input := filepath.Join(t.TempDir(), "bars.csv")
	data := "time,price,netflow\n2024-01-01 01:00:00,100,1\n2024-01-01 00:00:00,101,2\n"
	require.NoError(t, os.WriteFile(input, []byte(data), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--input", input, "--log-level", "error"})
	assert.Error(t, cmd.Execute())
}
