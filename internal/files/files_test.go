package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindWorkbooks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.XLSX", "a.xls", "~$a.xlsx", "notes.txt", "c.xlsm"} {
		touch(t, filepath.Join(dir, name), "x")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0o755))

	found, err := FindWorkbooks(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range found {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.xls", "b.XLSX", "c.xlsm"}, names)
}

func TestFindWorkbooks_MissingDir(t *testing.T) {
	_, err := FindWorkbooks(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestManager_CopyAndMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "a.xlsx")
	touch(t, src, "payload")
	m := NewManager(nil)

	copied := filepath.Join(dir, "copy", "a.xlsx")
	require.NoError(t, m.CopyFile(src, copied))
	data, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	moved := filepath.Join(dir, "archive", "a.xlsx")
	require.NoError(t, m.MoveFile(src, moved))
	assert.NoFileExists(t, src)
	assert.FileExists(t, moved)
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "r.xlsx"), UniquePath(dir, "r", ".xlsx", "_v"))

	touch(t, filepath.Join(dir, "r.xlsx"), "")
	touch(t, filepath.Join(dir, "r_v1.xlsx"), "")
	assert.Equal(t, filepath.Join(dir, "r_v2.xlsx"), UniquePath(dir, "r", ".xlsx", "_v"))
	assert.Equal(t, filepath.Join(dir, "r_1.xlsx"), UniquePath(dir, "r", ".xlsx", "_"))
}
