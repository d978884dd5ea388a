package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes one command against a file store in dir, like a fresh process would.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)

	cmd := newRootCommand(a)
	cmd.SetArgs(append([]string{"--store", "file", "--store-path", filepath.Join(dir, "store")}, args...))

	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, a.close())

	return out.String(), errOut.String(), err
}

func TestAddListGetRemove(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world"), 0o644))

	out, _, err := run(t, dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded yet")

	out, _, err = run(t, dir, "add", src)
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 2)
	id := fields[0]
	assert.Equal(t, "hello.txt", fields[1])

	out, _, err = run(t, dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "hello.txt")
	assert.Contains(t, out, "text/plain")
	assert.Contains(t, out, "11 B")

	out, _, err = run(t, dir, "get", id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	dst := filepath.Join(dir, "copy.txt")
	_, _, err = run(t, dir, "get", id, "-o", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	out, _, err = run(t, dir, "rm", id)
	require.NoError(t, err)
	assert.Equal(t, "removed "+id+"\n", out)

	_, errOut, err := run(t, dir, "rm", id)
	require.NoError(t, err)
	assert.Contains(t, errOut, "no file with id "+id)

	out, _, err = run(t, dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded yet")
}

func TestCustomKeyIsolatesLists(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(src, []byte{1, 2, 3}, 0o644))

	_, _, err := run(t, dir, "--key", "other", "add", src)
	require.NoError(t, err)

	out, _, err := run(t, dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded yet")

	out, _, err = run(t, dir, "--key", "other", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "a.bin")
}

func TestThumb(t *testing.T) {
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	src := filepath.Join(dir, "pic.png")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	out, _, err := run(t, dir, "add", src)
	require.NoError(t, err)
	id := strings.Fields(out)[0]

	dst := filepath.Join(dir, "thumb.png")
	_, _, err = run(t, dir, "thumb", id, "-o", dst)
	require.NoError(t, err)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	thumb, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, thumb.Bounds().Dx())
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := run(t, dir, "get", "nope")
	assert.ErrorContains(t, err, `invalid file id "nope"`)

	_, _, err = run(t, dir, "get", "42")
	assert.ErrorContains(t, err, "no file with id 42")

	_, _, err = run(t, dir, "add", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, _, err = run(t, dir, "--store", "nosql", "ls")
	assert.Error(t, err)
}
