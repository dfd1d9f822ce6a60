package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-watch/constants"
)

func TestListCandidates(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.pdf", "a.PDF", "notes.txt", ".hidden.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deep.pdf"), []byte("x"), 0o644))

	got, stats, err := ListCandidates(dir, constants.ExtensionSet(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}, got)
	assert.Equal(t, uint32(5), stats.Scanned)
	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(3), stats.Skipped)
}

func TestListCandidatesCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.pdf", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	got, _, err := ListCandidates(dir, constants.ExtensionSet([]string{"TXT"}))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.txt")}, got)
}

func TestListCandidatesErrors(t *testing.T) {
	_, _, err := ListCandidates("  ", nil)
	assert.Error(t, err)
	_, _, err = ListCandidates(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox")
	created, err := EnsureDir(root)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureDir(root)
	require.NoError(t, err)
	assert.False(t, created)

	file := filepath.Join(root, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = EnsureDir(file)
	assert.Error(t, err)
}

func TestAllowedExtAndHidden(t *testing.T) {
	set := constants.ExtensionSet([]string{".pdf"})
	assert.True(t, AllowedExt("/x/INVOICE.Pdf", set))
	assert.False(t, AllowedExt("/x/invoice", set))
	assert.False(t, AllowedExt("/x/invoice.pdf.tmp", set))
	assert.True(t, IsHidden("/x/.a.pdf"))
	assert.False(t, IsHidden("/x/a.pdf"))
}
