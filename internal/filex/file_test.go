package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_RelativeToCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("davmarks-data")
	require.NoError(t, err)

	require.True(t, filepath.IsAbs(got))
	want, err := filepath.EvalSymlinks(filepath.Join(tmp, "davmarks-data"))
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, want, resolved)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_AbsoluteNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	got, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got)

	again, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err)
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.html")

	require.NoError(t, WriteFile(path, []byte("<DL><p>")))
	b, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<DL><p>", string(b))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "read ")
}
