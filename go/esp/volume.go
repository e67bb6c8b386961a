// Package esp reads boot files from a host directory laid out like an EFI
// system partition.
package esp

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"

	"github.com/routeros/kboot/go/models"
)

// snappy framing format stream identifier
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// FallbackRoot is used when no config folder holds an EFI tree.
const FallbackRoot = "esp"

// DefaultRoot is the first kboot config folder containing an EFI directory.
func DefaultRoot() string {
	dirs := configdir.New("routeros", "kboot")
	if folder := dirs.QueryFolderContainsFile("EFI"); folder != nil {
		return folder.Path
	}
	return FallbackRoot
}

type Volume struct {
	config models.Config
	Log    *models.Logger
}

// Open uses c.ESPRoot, or DefaultRoot if it is empty.
func Open(c *models.Config, log *models.Logger) (*Volume, error) {
	v := &Volume{config: *c, Log: log}
	if v.config.ESPRoot == "" {
		v.config.ESPRoot = DefaultRoot()
	}
	fi, err := os.Stat(v.config.ESPRoot)
	if err != nil {
		return nil, errors.Wrap(err, "opening boot volume")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("boot volume %s is not a directory", v.config.ESPRoot)
	}
	return v, nil
}

func (v *Volume) Root() string {
	return v.config.ESPRoot
}

// Path maps a firmware path onto the host.
func (v *Volume) Path(path string) string {
	return v.config.PrefixPath(path)
}

// Read returns the contents of a file on the volume, decompressing
// snappy-framed files.
func (v *Volume) Read(path string) ([]byte, error) {
	host := v.Path(path)
	data, err := os.ReadFile(host)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if !bytes.HasPrefix(data, snappyMagic) {
		return data, nil
	}
	out, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", path)
	}
	v.Log.Debug("%s: decompressed %d bytes to %d", path, len(data), len(out))
	return out, nil
}

// Write stores data at path, creating parent directories.
func (v *Volume) Write(path string, data []byte, compress bool) error {
	host := v.Path(path)
	if err := os.MkdirAll(filepath.Dir(host), 0755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.Create(host)
	if err != nil {
		return errors.WithStack(err)
	}
	var w io.Writer = f
	var zw *snappy.Writer
	if compress {
		zw = snappy.NewBufferedWriter(f)
		w = zw
	}
	if _, err := w.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", host)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return errors.Wrapf(err, "writing %s", host)
		}
	}
	return errors.WithStack(f.Close())
}
