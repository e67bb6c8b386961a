//go:build linux && amd64

package native

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const supported = true

func mmapFixed(addr, size uint64) error {
	got, _, errno := unix.Syscall6(unix.SYS_MMAP, uintptr(addr), uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_FIXED_NOREPLACE, ^uintptr(0), 0)
	if errno != 0 {
		return errors.WithStack(errno)
	}
	// kernels before 4.17 treat the address as a hint
	if got != uintptr(addr) {
		unix.Syscall(unix.SYS_MUNMAP, got, uintptr(size), 0)
		return errors.Errorf("kernel placed mapping at %#x", got)
	}
	return nil
}

func munmap(addr, size uint64) error {
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, uintptr(addr), uintptr(size), 0); errno != 0 {
		return errors.WithStack(errno)
	}
	return nil
}

func hostMem(addr, size uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size)
}

func enter(entry, arg uint64) {
	jump(uintptr(entry), uintptr(arg))
}

// jump is in jump_linux_amd64.s.
//
//go:noescape
func jump(entry, arg uintptr)
