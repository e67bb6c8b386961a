// Package native boots kernels inside this process on a Linux/amd64 host.
// Firmware pages are anonymous mappings at the requested addresses and the
// handoff is a jump into them.
package native

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/models"
)

type Platform struct {
	*firmware.Services
	Log *models.Logger

	host *host
}

func NewPlatform(ram uint64, log *models.Logger) (*Platform, error) {
	if !supported {
		return nil, errors.Errorf("native platform is not available on %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	h := newHost()
	return &Platform{Services: firmware.NewServices(h, ram), Log: log, host: h}, nil
}

// Jump transfers control to entry with arg in rdi. It only comes back if the
// kernel returns, which is an error.
func (p *Platform) Jump(entry, arg uint64) error {
	if !p.host.mapped.RangeValid(entry, 1) {
		return errors.Errorf("entry %#x is not in mapped memory", entry)
	}
	p.Log.Debug("jumping to %#x", entry)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	enter(entry, arg)
	return errors.New("kernel returned to the loader")
}
