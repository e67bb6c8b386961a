package kboot

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/loader"
	"github.com/routeros/kboot/go/models"
)

// StatusOf maps a boot failure to the firmware status the loader exits with.
func StatusOf(err error) models.Status {
	if err == nil {
		return models.StatusSuccess
	}
	var re *ReadError
	switch {
	case errors.As(err, &re):
		return models.StatusLoadError
	case loader.IsAllocation(err):
		return models.StatusOutOfResources
	case loader.IsFormat(err), loader.IsBounds(err):
		return models.StatusAborted
	}
	var st models.Status
	if errors.As(err, &st) {
		return st
	}
	return models.StatusAborted
}

func hex(n uint64) string {
	return fmt.Sprintf("%#x", n)
}
