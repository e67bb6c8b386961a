package kboot

import (
	"bytes"
	"debug/elf"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/loader"
	"github.com/routeros/kboot/go/models"
	"github.com/routeros/kboot/go/models/mock"
)

const testRAM = 0x1000000

func kernel(t *testing.T, entry uint64, segs ...loader.BuildSegment) mock.Source {
	b := &loader.Builder{Entry: entry, Segments: segs}
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return mock.Source{models.KernelLocation: img}
}

func hlt(vaddr uint64) loader.BuildSegment {
	return loader.BuildSegment{Vaddr: vaddr, Data: []byte{0xf4}, Memsz: 0x1000, Flags: elf.PF_R | elf.PF_X}
}

func TestBoot(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	b := New(&models.Config{}, p, kernel(t, 0x200000, hlt(0x200000)), nil)
	img, err := b.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Jumps) != 1 || p.Jumps[0] != (firmware.Jump{Entry: 0x200000}) {
		t.Errorf("jumps %v", p.Jumps)
	}
	if p.Exits != 1 {
		t.Errorf("exited boot services %d times", p.Exits)
	}
	if len(img.Segments) != 1 || StatusOf(err) != models.StatusSuccess {
		t.Errorf("image %+v", img)
	}
}

func TestBootReadFailure(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	_, err := New(&models.Config{}, p, mock.Source{}, nil).Run()
	if StatusOf(err) != models.StatusLoadError {
		t.Errorf("got %v (%v)", StatusOf(err), err)
	}
	if len(p.Jumps) != 0 || len(p.Allocs) != 0 {
		t.Error("booted without a kernel")
	}
}

func TestBootShortImage(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	_, err := New(&models.Config{}, p, mock.Source{models.KernelLocation: make([]byte, 10)}, nil).Run()
	if !loader.IsFormat(err) || StatusOf(err) != models.StatusAborted {
		t.Errorf("got %v", err)
	}
	if len(p.Allocs) != 0 || len(p.Jumps) != 0 {
		t.Errorf("allocs %v jumps %v", p.Allocs, p.Jumps)
	}
}

func TestBootAllocationFailure(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	p.FailAt = 1
	_, err := New(&models.Config{}, p, kernel(t, 0x200000, hlt(0x200000)), nil).Run()
	if StatusOf(err) != models.StatusOutOfResources {
		t.Errorf("got %v (%v)", StatusOf(err), err)
	}
	if len(p.Jumps) != 0 {
		t.Error("jumped after failed load")
	}
}

func TestBootEntryCheck(t *testing.T) {
	src := kernel(t, 0x300000, hlt(0x200000))
	p := mock.NewPlatform(testRAM)
	_, err := New(&models.Config{}, p, src, nil).Run()
	if !loader.IsFormat(err) || len(p.Jumps) != 0 {
		t.Errorf("entry outside image: %v, jumps %v", err, p.Jumps)
	}

	p = mock.NewPlatform(testRAM)
	if _, err := New(&models.Config{SkipEntryCheck: true}, p, src, nil).Run(); err != nil {
		t.Fatal(err)
	}
	if len(p.Jumps) != 1 || p.Jumps[0].Entry != 0x300000 {
		t.Errorf("jumps %v", p.Jumps)
	}
}

func TestBootNoSegments(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	_, err := New(&models.Config{SkipEntryCheck: true}, p, kernel(t, 0x200000), nil).Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Allocs) != 0 || len(p.Jumps) != 1 || p.Jumps[0].Entry != 0x200000 {
		t.Errorf("allocs %v jumps %v", p.Allocs, p.Jumps)
	}
}

func TestBootKernelReturns(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	p.JumpErr = errors.New("kernel returned to the loader")
	_, err := New(&models.Config{}, p, kernel(t, 0x200000, hlt(0x200000)), nil).Run()
	if StatusOf(err) != models.StatusAborted {
		t.Errorf("got %v", err)
	}
}

func TestBootArgs(t *testing.T) {
	p := mock.NewPlatform(testRAM)
	p.Tables = []models.ConfigTable{{GUID: firmware.SMBIOS3_GUID, Addr: 0xf0000}}
	c := &models.Config{BootArgs: true, KeepBootServices: true, PCIe: 0xe0000000}
	if _, err := New(c, p, kernel(t, 0x200000, hlt(0x200000)), nil).Run(); err != nil {
		t.Fatal(err)
	}
	if p.Exits != 0 {
		t.Error("boot services exited with -keepbs")
	}
	arg := p.Jumps[0].Arg
	if arg == 0 || arg != testRAM-models.PageSize {
		t.Fatalf("arg %#x", arg)
	}
	raw := p.Read(arg, 48)
	if raw == nil {
		t.Fatal("args not readable")
	}
	if raw[17] != 3 || raw[8] != 0x00 || raw[9] != 0x00 || raw[10] != 0x0f {
		t.Errorf("smbios fields % x", raw[8:18])
	}
}

func TestBootSimVerbose(t *testing.T) {
	var out bytes.Buffer
	log := models.NewLogger(&out, false, true)
	sim := firmware.NewSim(testRAM, log)
	b := New(&models.Config{Verbose: true}, sim, kernel(t, 0x200000, hlt(0x200000)), log)
	b.Dis = fakeDis{}
	if _, err := b.Run(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Kernel file loaded",
		"Kernel address: 0x200000",
		"Bytes after entry point:",
		"0x00200000: f4 00",
		"0x200000: hlt",
		"Entering entry function now...",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("log is missing %q:\n%s", want, out.String())
		}
	}
	if len(sim.Jumps) != 1 || !sim.Exited() {
		t.Error("sim handoff not recorded")
	}
}

type fakeDis struct{}

func (fakeDis) Disas(mem []byte, addr uint64) (string, error) {
	if mem[0] == 0xf4 {
		return "0x200000: hlt", nil
	}
	return "", errors.New("unknown")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want models.Status
	}{
		{nil, models.StatusSuccess},
		{&ReadError{Err: models.StatusNotFound}, models.StatusLoadError},
		{errors.WithStack(&loader.BoundsError{What: "x"}), models.StatusAborted},
		{errors.WithStack(&loader.AllocationError{Err: models.StatusNotFound}), models.StatusOutOfResources},
		{errors.Wrap(models.StatusUnsupported, "exit"), models.StatusUnsupported},
		{errors.New("emulator fault"), models.StatusAborted},
	}
	for _, v := range tests {
		if got := StatusOf(v.err); got != v.want {
			t.Errorf("StatusOf(%v) = %v, want %v", v.err, got, v.want)
		}
	}
}
