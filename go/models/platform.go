package models

// KernelLocation is where the firmware looks for the kernel image on the boot volume.
const KernelLocation = `\EFI\router_os\kernel.bin`

// AnyAddress asks a PageAllocator to choose the placement itself.
const AnyAddress = ^uint64(0)

type ImageSource interface {
	Read(path string) ([]byte, error)
}

// PageAllocator hands out whole pages of physical memory. A fixed address is
// either honored exactly or the request fails.
type PageAllocator interface {
	AllocatePages(addr, count uint64, typ MemoryType) (uint64, error)
}

// PageFreer is implemented by allocators that can give pages back.
type PageFreer interface {
	FreePages(addr, count uint64) error
}

type Memory interface {
	MemWrite(addr uint64, p []byte) error
	MemRead(addr, size uint64) ([]byte, error)
}

// Handoff transfers control to a loaded entry point. Implementations that
// actually leave the loader only return if the kernel hands control back.
type Handoff interface {
	Jump(entry, arg uint64) error
}

// Platform is everything the boot flow needs from the machine and its firmware.
type Platform interface {
	PageAllocator
	PageFreer
	Memory
	Handoff

	MemoryMap() []MemoryDescriptor
	ConfigTables() []ConfigTable
	ExitBootServices() error
}
