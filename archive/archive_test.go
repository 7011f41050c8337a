package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip writes the given name/content pairs into an in-memory zip.
// Names ending in '/' become directory entries.
func buildZip(t *testing.T, files ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		f, err := w.Create(files[i])
		require.NoError(t, err)
		_, err = f.Write([]byte(files[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFindByBasename(t *testing.T) {
	data := buildZip(t,
		"sargo-qq1a/", "",
		"sargo-qq1a/flash-all.sh", "fastboot reboot-bootloader\n",
		"sargo-qq1a/bootloader-sargo.img", "BOOTLDR!",
	)

	a, err := OpenBytes(data)
	require.NoError(t, err)

	entries := a.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Dir)
	assert.Equal(t, "sargo-qq1a", entries[0].Base())

	script, err := a.Find("flash-all.sh")
	require.NoError(t, err)
	assert.Equal(t, "sargo-qq1a/flash-all.sh", script.Name)

	text, err := script.Text()
	require.NoError(t, err)
	assert.Equal(t, "fastboot reboot-bootloader\n", text)

	img, err := a.Find("bootloader-sargo.img")
	require.NoError(t, err)
	b, err := img.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("BOOTLDR!"), b)
	assert.Equal(t, int64(8), img.Size)

	_, err = a.Find("sargo-qq1a")
	assert.True(t, IsNotFound(err), "directories are not files")

	_, err = a.Find("radio.img")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "radio.img not found")
}

func TestNestedArchive(t *testing.T) {
	inner := buildZip(t,
		"fastboot-info.txt", "version 1\nflash boot\n",
		"boot.img", "BOOT",
	)
	outer := buildZip(t, "sargo/image-sargo.zip", string(inner))

	a, err := OpenBytes(outer)
	require.NoError(t, err)

	e, err := a.Find("image-sargo.zip")
	require.NoError(t, err)

	nested, err := e.Archive()
	require.NoError(t, err)

	info, err := nested.Find("fastboot-info.txt")
	require.NoError(t, err)
	text, err := info.Text()
	require.NoError(t, err)
	assert.Equal(t, "version 1\nflash boot\n", text)
	assert.NoError(t, nested.Close())
}

func TestNestedArchiveNotAZip(t *testing.T) {
	a, err := OpenBytes(buildZip(t, "image.zip", "not a zip"))
	require.NoError(t, err)

	e, err := a.Find("image.zip")
	require.NoError(t, err)

	_, err = e.Archive()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open nested image.zip")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.zip")
	require.NoError(t, os.WriteFile(path, buildZip(t, "a/b/c.img", "C"), 0o644))

	a, err := OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	e, err := a.Find("c.img")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c.img", e.Name)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := OpenBytes([]byte("definitely not a zip"))
	assert.Error(t, err)
}

func TestBase(t *testing.T) {
	assert.Equal(t, "flash-all.sh", Base("dir/sub/flash-all.sh"))
	assert.Equal(t, "flash-all.sh", Base("flash-all.sh"))
	assert.Equal(t, "sub", Base("dir/sub/"))
}
