// Package bootargs builds the argument block a kernel receives in its first
// integer argument register when the loader is asked to pass one.
package bootargs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/models"
)

var order = binary.LittleEndian

// KernelArgs is the block handed to the kernel.
type KernelArgs struct {
	AcpiPtr   uint64
	SmbiosPtr uint64
	AcpiVer   uint8
	SmbiosVer uint8
	Pad       []byte `struc:"[6]pad"`
	PciePtr   uint64
	// MemmapPtr points at MemmapEntries consecutive OSMemEntry records.
	MemmapPtr     uint64
	MemmapEntries uint64
}

// OSMemEntry is one memory map entry as the kernel sees it.
type OSMemEntry struct {
	Type  uint32
	Pad   []byte `struc:"[4]pad"`
	Base  uint64
	Pages uint64
	Attr  uint64
}

const (
	ArgsSize  = 48
	EntrySize = 32
)

// Populate records ACPI and SMBIOS pointers from the firmware configuration
// tables. When several versions are present the highest wins.
func (k *KernelArgs) Populate(tables []models.ConfigTable) {
	for _, t := range tables {
		switch t.GUID {
		case firmware.ACPI2_GUID:
			k.setAcpi(t.Addr, 2)
		case firmware.ACPI_GUID:
			k.setAcpi(t.Addr, 1)
		case firmware.SMBIOS3_GUID:
			k.setSmbios(t.Addr, 3)
		case firmware.SMBIOS_GUID:
			k.setSmbios(t.Addr, 1)
		}
	}
}

func (k *KernelArgs) setAcpi(addr uint64, ver uint8) {
	if k.AcpiVer < ver {
		k.AcpiPtr, k.AcpiVer = addr, ver
	}
}

func (k *KernelArgs) setSmbios(addr uint64, ver uint8) {
	if k.SmbiosVer < ver {
		k.SmbiosPtr, k.SmbiosVer = addr, ver
	}
}

func (k *KernelArgs) String() string {
	return fmt.Sprintf("KernelArgs{acpi: %#x (v%d), smbios: %#x (v%d), pcie: %#x, memmap: %#x (%d entries)}",
		k.AcpiPtr, k.AcpiVer, k.SmbiosPtr, k.SmbiosVer, k.PciePtr, k.MemmapPtr, k.MemmapEntries)
}

// Pack serializes k followed by the memory map entries.
func (k *KernelArgs) Pack(entries []OSMemEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, k, order); err != nil {
		return nil, errors.Wrap(err, "packing kernel args")
	}
	for i := range entries {
		if err := struc.PackWithOrder(&buf, &entries[i], order); err != nil {
			return nil, errors.Wrap(err, "packing memory map")
		}
	}
	return buf.Bytes(), nil
}

// Unpack is the inverse of Pack.
func Unpack(p []byte) (*KernelArgs, []OSMemEntry, error) {
	r := bytes.NewReader(p)
	k := &KernelArgs{}
	if err := struc.UnpackWithOrder(r, k, order); err != nil {
		return nil, nil, errors.Wrap(err, "unpacking kernel args")
	}
	entries := make([]OSMemEntry, k.MemmapEntries)
	for i := range entries {
		if err := struc.UnpackWithOrder(r, &entries[i], order); err != nil {
			return nil, nil, errors.Wrapf(err, "unpacking memory map entry %d", i)
		}
	}
	return k, entries, nil
}

func convertMap(mmap []models.MemoryDescriptor) []OSMemEntry {
	entries := make([]OSMemEntry, len(mmap))
	for i, d := range mmap {
		entries[i] = OSMemEntry{Type: uint32(d.Type), Base: d.Base, Pages: d.Pages, Attr: d.Attr}
	}
	return entries
}
