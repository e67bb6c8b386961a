package unicorn

import "io"

// COM1 is the first legacy serial port.
const COM1 = 0x3f8

const (
	regData = iota
	regIER
	regFCR
	regLCR
	regMCR
	regLSR
	regMSR
	regScratch
)

const (
	lcrDLAB   = 0x80
	lsrTxIdle = 0x60
)

// Serial is enough of a 16550 for a kernel to print by polling.
type Serial struct {
	Base uint32
	Out  io.Writer

	regs    [8]byte
	divisor uint16
}

func NewSerial(base uint32, out io.Writer) *Serial {
	return &Serial{Base: base, Out: out}
}

func (s *Serial) Claims(port uint32) bool {
	return port >= s.Base && port < s.Base+8
}

func (s *Serial) Write(port uint32, value byte) {
	reg := port - s.Base
	dlab := s.regs[regLCR]&lcrDLAB != 0
	switch {
	case reg == regData && dlab:
		s.divisor = s.divisor&0xff00 | uint16(value)
	case reg == regIER && dlab:
		s.divisor = s.divisor&0x00ff | uint16(value)<<8
	case reg == regData:
		if s.Out != nil {
			s.Out.Write([]byte{value})
		}
	case reg == regLSR:
		// read only
	default:
		s.regs[reg] = value
	}
}

func (s *Serial) Read(port uint32) byte {
	reg := port - s.Base
	dlab := s.regs[regLCR]&lcrDLAB != 0
	switch {
	case reg == regData && dlab:
		return byte(s.divisor)
	case reg == regIER && dlab:
		return byte(s.divisor >> 8)
	case reg == regData:
		return 0
	case reg == regLSR:
		return lsrTxIdle
	}
	return s.regs[reg]
}

// Divisor is the baud rate divisor last programmed by the guest.
func (s *Serial) Divisor() uint16 {
	return s.divisor
}
