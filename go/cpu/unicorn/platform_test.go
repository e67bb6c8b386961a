package unicorn

import (
	"bytes"
	"io"
	"testing"

	"github.com/routeros/kboot/go/models"
)

const testRAM = 0x400000

// mov dx, 0x3f8; mov al, 'H'; out dx, al; mov al, 'i'; out dx, al; hlt
var hiKernel = []byte{0x66, 0xba, 0xf8, 0x03, 0xb0, 0x48, 0xee, 0xb0, 0x69, 0xee, 0xf4}

func newTestPlatform(t *testing.T, console io.Writer) *Platform {
	p, err := NewPlatform(testRAM, console, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestSerialOutput(t *testing.T) {
	var console bytes.Buffer
	p := newTestPlatform(t, &console)
	if _, err := p.AllocatePages(0x200000, 1, models.LoaderData); err != nil {
		t.Fatal(err)
	}
	if err := p.MemWrite(0x200000, hiKernel); err != nil {
		t.Fatal(err)
	}
	p.Count = 5
	if err := p.Jump(0x200000, 0); err != nil {
		t.Fatal(err)
	}
	if console.String() != "Hi" {
		t.Errorf("console got %q", console.String())
	}
}

func TestJumpArg(t *testing.T) {
	p := newTestPlatform(t, nil)
	p.AllocatePages(0x200000, 1, models.LoaderData)
	// mov [0x200100], rdi; hlt
	code := []byte{0x48, 0x89, 0x3c, 0x25, 0x00, 0x01, 0x20, 0x00, 0xf4}
	p.MemWrite(0x200000, code)
	p.Count = 1
	if err := p.Jump(0x200000, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	got, err := p.MemRead(0x200100, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}) {
		t.Errorf("rdi was % x", got)
	}
}

func TestStackIsReserved(t *testing.T) {
	p := newTestPlatform(t, nil)
	mmap := p.MemoryMap()
	last := mmap[len(mmap)-1]
	if last.Type != models.BootServicesData || last.Pages != DefaultStackPages || last.Base+last.Pages*models.PageSize != testRAM {
		t.Errorf("stack not at top of RAM: %v", mmap)
	}
}

func TestSerialRegisters(t *testing.T) {
	var out bytes.Buffer
	s := NewSerial(COM1, &out)
	// the init sequence a kernel runs before printing
	for _, w := range [][2]uint32{{1, 0x00}, {3, 0x80}, {0, 0x03}, {1, 0x00}, {3, 0x03}, {2, 0xc7}, {4, 0x0b}} {
		s.Write(COM1+w[0], byte(w[1]))
	}
	if s.Divisor() != 3 {
		t.Errorf("divisor %d", s.Divisor())
	}
	if s.Read(COM1+5)&0x20 == 0 {
		t.Error("transmitter never ready")
	}
	s.Write(COM1, 'x')
	if out.String() != "x" {
		t.Errorf("got %q", out.String())
	}
	if s.Claims(COM1+8) || !s.Claims(COM1+7) {
		t.Error("wrong port range")
	}
}
