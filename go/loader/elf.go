package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// Images are always in the byte order of the machine we boot.
var order = binary.LittleEndian

// HeaderSize is the size of an ELF64 file header.
const HeaderSize = 64

var elfMagic = []byte{0x7f, 0x45, 0x4c, 0x46}

// Header is a view of the ELF64 file header. It aliases the image it was
// parsed from and is only valid as long as that buffer is.
type Header []byte

// ParseHeader checks the magic and returns a view of the header fields. It
// does not look at class, byte order or machine.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return nil, formatErrorf("%d bytes is too short for an ELF header", len(buf))
	}
	if !bytes.Equal(buf[:4], elfMagic) {
		return nil, formatErrorf("bad magic % x", buf[:4])
	}
	return Header(buf[:HeaderSize:HeaderSize]), nil
}

func (h Header) Ident() []byte        { return h[0:16] }
func (h Header) Magic() []byte        { return h[0:4] }
func (h Header) Class() elf.Class     { return elf.Class(h[elf.EI_CLASS]) }
func (h Header) Data() elf.Data       { return elf.Data(h[elf.EI_DATA]) }
func (h Header) Type() elf.Type       { return elf.Type(order.Uint16(h[16:])) }
func (h Header) Machine() elf.Machine { return elf.Machine(order.Uint16(h[18:])) }
func (h Header) Version() uint32      { return order.Uint32(h[20:]) }
func (h Header) Entry() uint64        { return order.Uint64(h[24:]) }
func (h Header) Phoff() uint64        { return order.Uint64(h[32:]) }
func (h Header) Shoff() uint64        { return order.Uint64(h[40:]) }
func (h Header) Flags() uint32        { return order.Uint32(h[48:]) }
func (h Header) Ehsize() uint16       { return order.Uint16(h[52:]) }
func (h Header) Phentsize() uint16    { return order.Uint16(h[54:]) }
func (h Header) Phnum() uint16        { return order.Uint16(h[56:]) }
func (h Header) Shentsize() uint16    { return order.Uint16(h[58:]) }
func (h Header) Shnum() uint16        { return order.Uint16(h[60:]) }
func (h Header) Shstrndx() uint16     { return order.Uint16(h[62:]) }
