package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSQLFilesSortedTopLevelOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.SQL", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old", "0000_x.sql"), []byte("--"), 0o644))

	files, err := listSQLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.SQL", "0002_b.sql"}, files)
}

func TestResolveMigrationsDir(t *testing.T) {
	got, err := resolveMigrationsDir(" ./db/../migrations ")
	require.NoError(t, err)
	assert.Equal(t, "migrations", got)

	t.Chdir(t.TempDir())
	_, err = resolveMigrationsDir("")
	if err == nil {
		// 可执行文件旁恰好有 migrations 时也算找到
		t.Skip("migrations dir found next to test binary")
	}
	assert.Contains(t, err.Error(), "migrations dir not found")
}
