package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdexports/internal/exporter"
	"bdexports/internal/infrastructure"
	"bdexports/internal/store"
	"bdexports/internal/store/sqlite"
)

const monthlyCSV = `hs_code,country,month,USD
61,GERMANY,August-2023,100.00
61,Germany,August-2023,50.00
61,U.S.A.,August-2023,0.00
61,Unknown,August-2023,10.00
`

func TestRun_All(t *testing.T) {
	base := t.TempDir()
	data := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "monthly_export_data.csv"), []byte(monthlyCSV), 0o644))

	dbPath := filepath.Join(base, "exports.db")
	cfgFile := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("store:\n  driver: sqlite\n  dsn: "+dbPath+"\n"), 0o644))
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-base", base, "-config", cfgFile, "-store", "all"}, &out))

	cleaned, err := exporter.ReadMonthly(filepath.Join(data, "monthly_export_data_cleaned.csv"))
	require.NoError(t, err)
	require.Len(t, cleaned, 2)
	assert.Equal(t, "Germany", cleaned[0].Country)
	assert.Equal(t, 150.0, cleaned[0].USD)

	assert.FileExists(t, filepath.Join(data, "unique_countries.txt"))
	assert.FileExists(t, filepath.Join(data, "verification_results.csv"))
	assert.Contains(t, out.String(), "Checked 1 zero row(s), 0 unverified")

	st, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer st.Close()
	rows, err := st.QueryMonthly(context.Background(), store.MonthlyFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRun_UnknownStep(t *testing.T) {
	assert.Error(t, run(context.Background(), []string{"scrub"}, &bytes.Buffer{}))
}
