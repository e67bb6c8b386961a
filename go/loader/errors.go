package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError means the image is not something this loader can load.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "bad kernel image: " + e.Reason
}

// BoundsError means a structure described by the image lies outside it.
type BoundsError struct {
	What         string
	Off, Size    uint64
	Limit        uint64
	addrOverflow bool
}

func (e *BoundsError) Error() string {
	if e.addrOverflow {
		return fmt.Sprintf("%s at %#x (+%#x) runs past the end of the address space", e.What, e.Off, e.Size)
	}
	return fmt.Sprintf("%s at %#x (+%#x) extends past end of image (%#x bytes)", e.What, e.Off, e.Size, e.Limit)
}

// AllocationError means the firmware refused the pages a segment needs.
type AllocationError struct {
	Segment     int
	Addr, Pages uint64
	Err         error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("segment %d: allocating %d pages at %#x: %v", e.Segment, e.Pages, e.Addr, e.Err)
}

// Unwrap, not Cause: errors.Cause has to stop at the AllocationError.
func (e *AllocationError) Unwrap() error {
	return e.Err
}

func formatErrorf(format string, a ...interface{}) error {
	return errors.WithStack(&FormatError{Reason: fmt.Sprintf(format, a...)})
}

func IsFormat(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

func IsBounds(err error) bool {
	var e *BoundsError
	return errors.As(err, &e)
}

func IsAllocation(err error) bool {
	var e *AllocationError
	return errors.As(err, &e)
}
