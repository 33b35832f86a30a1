package symptom

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableWatcher_Reload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fever:\n  - feverish\n"), 0o644))

	w, err := NewTableWatcher(path, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{"fever"}, w.Table().Canonicals())

	require.NoError(t, os.WriteFile(path, []byte("fever: []\ncough: []\n"), 0o644))
	require.NoError(t, w.Reload())
	assert.Equal(t, []string{"cough", "fever"}, w.Table().Canonicals())

	require.NoError(t, os.WriteFile(path, []byte("fever: [broken"), 0o644))
	assert.Error(t, w.Reload())
	assert.Equal(t, []string{"cough", "fever"}, w.Table().Canonicals(), "invalid edit keeps previous table")
}

func TestTableWatcher_Run(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fever: []\n"), 0o644))

	w, err := NewTableWatcher(path, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("fever: []\nrash: []\n"), 0o644))
	require.Eventually(t, func() bool { return w.Table().Has("rash") }, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNewTableWatcher_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewTableWatcher(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
