package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FUELTRACK_STORE", "csv")
	t.Setenv("FUELTRACK_DATA_DIR", dir)
	t.Setenv("FUELTRACK_MEMBERS", "a,b")
	t.Setenv("FUELTRACK_MQ_MODE", "none")
	t.Setenv("FUELTRACK_TIMEZONE", "UTC")
	t.Setenv("FUELTRACK_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func TestRecordWorkflow(t *testing.T) {
	dir := setupEnv(t)

	out := mustRun(t, "record", "add", "--date", "2024-03-01", "--time", "08:00", "-u", "a", "-o", "100")
	assert.Contains(t, out, "added record 1")
	mustRun(t, "record", "add", "--date", "2024-03-01", "--time", "09:00", "-u", "b", "-o", "130")
	out = mustRun(t, "record", "add", "--date", "2024-03-01", "--time", "10:00", "-u", "a", "-o", "150", "-p", "20")
	assert.Contains(t, out, "tank 2")

	assert.FileExists(t, filepath.Join(dir, "records.csv"))
	assert.FileExists(t, filepath.Join(dir, "tanks.csv"))

	out = mustRun(t, "tank", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "DATE", "PRICE", "a", "b"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "2024-03-01", "10:00", "20", "12", "8"}, strings.Fields(lines[1]))

	// b only moves within its neighbours, the other fields stay as stored
	out = mustRun(t, "record", "edit", "2", "-o", "140")
	assert.Contains(t, out, "updated record 2")
	out = mustRun(t, "record", "list")
	assert.Contains(t, out, "2024-03-01 09:00")

	out = mustRun(t, "tank", "list")
	lines = strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"1", "2024-03-01", "10:00", "20", "16", "4"}, strings.Fields(lines[1]))

	_, err := run(t, "record", "add", "--date", "2024-03-01", "--time", "11:00", "-u", "b", "-o", "120")
	assert.ErrorContains(t, err, "odometer must exceed previous reading")

	out = mustRun(t, "check")
	assert.Contains(t, out, "all readings are in order")

	mustRun(t, "record", "delete", "2")
	_, err = run(t, "record", "delete", "2")
	assert.ErrorContains(t, err, "record not found")

	out = mustRun(t, "recompute")
	assert.Contains(t, out, "2 records")
}

func TestRecordListShowsLatestFive(t *testing.T) {
	setupEnv(t)
	for i := 0; i < 7; i++ {
		clock := fmt.Sprintf("%02d:00", i+1)
		mustRun(t, "record", "add", "--date", "2024-03-01", "--time", clock, "-u", "a", "-o", strconv.Itoa(100*(i+1)))
	}

	out := mustRun(t, "record", "list")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1+5)

	out = mustRun(t, "record", "list", "--all")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1+7)
}

func TestImportAndCheck(t *testing.T) {
	setupEnv(t)
	src := t.TempDir()
	csv := "id,timestamp,user,odometer,trip,tank_id,pay\n" +
		"1,2024-03-01 08:00:00,a,100,0,1,0\n" +
		"2,2024-03-01T09:00,b,90,0,0,0\n" +
		"3,2024-03-01 10:00,a,150,0,0,20\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "records.csv"), []byte(csv), 0o644))

	out := mustRun(t, "import", "--input", src)
	assert.Contains(t, out, "imported 3 records, 1 tanks")
	assert.Contains(t, out, "out of order")

	out, err := run(t, "check")
	assert.Error(t, err)
	assert.Contains(t, out, "record 2")

	_, err = run(t, "import", "--input", t.TempDir())
	assert.ErrorContains(t, err, "no records found")
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("FUELTRACK_STORE", "floppy")
	_, err := run(t, "record", "list")
	assert.ErrorContains(t, err, "unknown store")

	_, err = run(t, "record", "list", "--store", "mem")
	assert.NoError(t, err)
}
