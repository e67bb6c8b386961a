package models

import (
	"fmt"
	"strings"
)

// HexDump formats mem as 16-byte lines of hex and printable ASCII.
func HexDump(base uint64, mem []byte) []string {
	var out []string
	for i := 0; i < len(mem); i += 16 {
		line := mem[i:]
		if len(line) > 16 {
			line = line[:16]
		}
		hex := make([]string, 16)
		ascii := make([]byte, len(line))
		for j := range hex {
			if j >= len(line) {
				hex[j] = "  "
				continue
			}
			c := line[j]
			hex[j] = fmt.Sprintf("%02x", c)
			if c >= 0x20 && c <= 0x7e {
				ascii[j] = c
			} else {
				ascii[j] = '.'
			}
		}
		out = append(out, fmt.Sprintf("0x%08x: %s  %s", base+uint64(i), strings.Join(hex, " "), ascii))
	}
	return out
}
