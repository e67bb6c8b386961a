package models

import "fmt"

// Status is a firmware status code. Error codes carry the high bit.
type Status uint64

const errorBit = 1 << 63

const (
	StatusSuccess          Status = 0
	StatusLoadError        Status = errorBit | 1
	StatusInvalidParameter Status = errorBit | 2
	StatusUnsupported      Status = errorBit | 3
	StatusBufferTooSmall   Status = errorBit | 5
	StatusDeviceError      Status = errorBit | 7
	StatusOutOfResources   Status = errorBit | 9
	StatusNotFound         Status = errorBit | 14
	StatusAborted          Status = errorBit | 21
)

var statusNames = map[Status]string{
	StatusSuccess:          "SUCCESS",
	StatusLoadError:        "LOAD_ERROR",
	StatusInvalidParameter: "INVALID_PARAMETER",
	StatusUnsupported:      "UNSUPPORTED",
	StatusBufferTooSmall:   "BUFFER_TOO_SMALL",
	StatusDeviceError:      "DEVICE_ERROR",
	StatusOutOfResources:   "OUT_OF_RESOURCES",
	StatusNotFound:         "NOT_FOUND",
	StatusAborted:          "ABORTED",
}

func (s Status) Error() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status %#x", uint64(s))
}

// Code is what the process exits with when the firmware returns s.
func (s Status) Code() int {
	return int(s & 0xff)
}
