package models

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// GUID is kept in its textual byte order.
type GUID [16]byte

func ParseGUID(s string) (GUID, error) {
	var g GUID
	raw := strings.Replace(s, "-", "", -1)
	if len(raw) != 32 {
		return g, errors.Errorf("bad guid %q", s)
	}
	if _, err := hex.Decode(g[:], []byte(raw)); err != nil {
		return g, errors.Wrapf(err, "bad guid %q", s)
	}
	return g, nil
}

func MustGUID(s string) GUID {
	g, err := ParseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (g GUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", g[0:4], g[4:6], g[6:8], g[8:10], g[10:16])
}

// ConfigTable is one entry of the firmware configuration table.
type ConfigTable struct {
	GUID GUID
	Addr uint64
}
