//go:build !(linux && amd64)

package native

import "github.com/pkg/errors"

const supported = false

var errUnsupported = errors.New("fixed-address mappings are only implemented on linux/amd64")

func mmapFixed(addr, size uint64) error { return errUnsupported }
func munmap(addr, size uint64) error    { return errUnsupported }
func hostMem(addr, size uint64) []byte  { return nil }
func enter(entry, arg uint64)           { panic(errUnsupported) }
