package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-ramfs/common"
)

func run(t *testing.T, args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"ramfs"}, args...))
	return out.String(), err
}

func TestImageCommands(t *testing.T) {
	assert := assert.New(t)
	dir, err := ioutil.TempDir("", "ramfs")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	img := filepath.Join(dir, "fs.img")
	host := filepath.Join(dir, "hello.txt")
	require.NoError(t, ioutil.WriteFile(host, []byte("hello, kernel"), 0644))

	_, err = run(t, "-i", img, "mkimage")
	require.NoError(t, err)

	out, err := run(t, "-i", img, "ls")
	require.NoError(t, err)
	assert.Contains(out, "log")
	assert.Contains(out, "dev")

	_, err = run(t, "-i", img, "put", host, "/tmp/hello.txt")
	require.NoError(t, err)
	out, err = run(t, "-i", img, "cat", "/tmp/hello.txt")
	require.NoError(t, err)
	assert.Equal("hello, kernel", out)

	_, err = run(t, "-i", img, "mknod", "--driver", "uart", "--minor", "1",
		"/dev/uart1")
	require.NoError(t, err)
	out, err = run(t, "-i", img, "stat", "/dev/uart1")
	require.NoError(t, err)
	assert.Contains(out, "device uart1")

	_, err = run(t, "-i", img, "mkdir", "/tmp/sub")
	require.NoError(t, err)
	_, err = run(t, "-i", img, "rm", "/tmp")
	assert.True(errors.Is(err, common.ErrNotEmpty))
	_, err = run(t, "-i", img, "rm", "/tmp/hello.txt")
	require.NoError(t, err)
	_, err = run(t, "-i", img, "cat", "/tmp/hello.txt")
	assert.True(errors.Is(err, common.ErrNotFound))
}

func TestManifest(t *testing.T) {
	dir, err := ioutil.TempDir("", "ramfs")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	img := filepath.Join(dir, "fs.img")
	manifest := filepath.Join(dir, "boot.yaml")
	require.NoError(t, ioutil.WriteFile(manifest, []byte(`
records:
  - name: etc
    type: dir
    children:
      - name: hostname
        data: ramdisk
`), 0644))

	_, err = run(t, "-i", img, "mkimage", "-m", manifest)
	require.NoError(t, err)
	out, err := run(t, "-i", img, "cat", "/etc/hostname")
	require.NoError(t, err)
	assert.Equal(t, "ramdisk", out)
}
