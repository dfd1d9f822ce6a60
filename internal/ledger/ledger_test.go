package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/entity"
)

func record(name string) entity.InvoiceRecord {
	return entity.NewInvoiceRecord("/in/"+name, map[string]string{
		"invoice_number": "INV-1",
		"date":           "01/02/2024",
		"total":          "50.00",
		"vendor":         "Acme, Inc",
	}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	l := Open(path, nil)
	assert.Equal(t, 0, l.Len())

	require.NoError(t, l.Append(record("a.pdf")))
	require.NoError(t, l.Append(record("b.pdf")))

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "filename,filepath,invoice_number,date,total,vendor,processed_date", lines[0])
	assert.Equal(t, `a.pdf,/in/a.pdf,INV-1,01/02/2024,50.00,"Acme, Inc",2024-01-02 03:04:05`, lines[1])
	assert.True(t, l.Contains("b.pdf"))
}

func TestAppendIsIdempotentByFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	l := Open(path, nil)

	require.NoError(t, l.Append(record("a.pdf")))
	err := l.Append(record("a.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAlreadyRecorded))

	assert.Len(t, readLines(t, path), 2)
}

func TestConcurrentAppendsOfSameFileWriteOneRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	l := Open(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Append(record("same.pdf"))
		}()
	}
	wg.Wait()

	assert.Len(t, readLines(t, path), 2)
	assert.Equal(t, 1, l.Len())
}

func TestReopenRestoresProcessedSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	first := Open(path, nil)
	for _, n := range []string{"c.pdf", "a.pdf", "b.pdf"} {
		require.NoError(t, first.Append(record(n)))
	}

	second := Open(path, nil)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, second.Filenames())

	// new rows after a restart must not repeat the header
	require.NoError(t, second.Append(record("d.pdf")))
	lines := readLines(t, path)
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[4], "d.pdf,"))
}

func TestEmptyExistingFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	l := Open(path, nil)
	require.NoError(t, l.Append(record("a.pdf")))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "filename,"))
}

func TestTruncatedRowKeepsProcessedSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	first := Open(path, nil)
	require.NoError(t, first.Append(record("a.pdf")))
	require.NoError(t, first.Append(record("b.pdf")))

	// a write cut short mid-row
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("c.pdf,/x/c.pdf,N/A\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	second := Open(path, nil)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, second.Filenames())

	err = second.Append(record("a.pdf"))
	assert.True(t, errors.Is(err, common.ErrAlreadyRecorded))
	assert.Len(t, readLines(t, path), 4)

	rows, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "N/A", rows[2].InvoiceNumber)
	assert.Empty(t, rows[2].Total)
}

func TestUnreadableLedgerIsColdStart(t *testing.T) {
	// a directory at the ledger path opens but cannot be read
	path := t.TempDir()

	l := Open(path, nil)
	assert.Equal(t, 0, l.Len())
}

func TestAppendFailureDoesNotMark(t *testing.T) {
	dir := t.TempDir()
	// parent "dir" is a regular file, so the ledger cannot be created beneath it
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	l := Open(filepath.Join(blocker, "out.csv"), nil)
	err := l.Append(record("a.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLedgerIO))
	assert.False(t, l.Contains("a.pdf"))
}

func TestReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	l := Open(path, nil)
	require.NoError(t, l.Append(record("a.pdf")))
	require.NoError(t, l.Append(record("b.pdf")))

	rows, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme, Inc", rows[0].Vendor)
	assert.Equal(t, "b.pdf", rows[1].Filename)
}
