package boot

import (
	"os"
	"runtime"

	"github.com/pkg/errors"

	kboot "github.com/routeros/kboot/go"
	"github.com/routeros/kboot/go/cmd"
	"github.com/routeros/kboot/go/cpu"
	"github.com/routeros/kboot/go/esp"
	"github.com/routeros/kboot/go/models"
)

func Main(args []string) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := cmd.NewKbootCmd()
	c.Run = func(_ []string) error {
		vol, err := esp.Open(c.Config, c.Log)
		if err != nil {
			return errors.WithStack(&kboot.ReadError{Path: models.KernelLocation, Err: err})
		}
		c.Log.Debug("boot volume: %s", vol.Root())
		p, closer, err := c.MakePlatform()
		if err != nil {
			return err
		}
		defer closer()

		b := kboot.New(c.Config, p, vol, c.Log)
		if c.Config.Verbose {
			b.Dis = cpu.NewDisassembler()
		}
		if _, err := b.Run(); err != nil {
			return err
		}
		c.Log.Info("handoff complete")
		return nil
	}
	os.Exit(c.Main(args))
}

func init() { cmd.Register("boot", "load the kernel from the boot volume and jump to it", Main) }
