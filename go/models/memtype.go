package models

import "fmt"

// MemoryType mirrors the firmware memory classes a page can be allocated as.
type MemoryType uint32

const (
	ReservedMemory MemoryType = iota
	LoaderCode
	LoaderData
	BootServicesCode
	BootServicesData
	RuntimeServicesCode
	RuntimeServicesData
	ConventionalMemory
	UnusableMemory
	ACPIReclaimMemory
	ACPIMemoryNVS
	MemoryMappedIO
)

var memTypeNames = map[MemoryType]string{
	ReservedMemory:      "reserved",
	LoaderCode:          "loader-code",
	LoaderData:          "loader-data",
	BootServicesCode:    "bs-code",
	BootServicesData:    "bs-data",
	RuntimeServicesCode: "rt-code",
	RuntimeServicesData: "rt-data",
	ConventionalMemory:  "conventional",
	UnusableMemory:      "unusable",
	ACPIReclaimMemory:   "acpi-reclaim",
	ACPIMemoryNVS:       "acpi-nvs",
	MemoryMappedIO:      "mmio",
}

func (t MemoryType) String() string {
	if name, ok := memTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// MemoryDescriptor is one entry of the firmware memory map.
type MemoryDescriptor struct {
	Type  MemoryType
	Base  uint64
	Pages uint64
	Attr  uint64
}

func (m MemoryDescriptor) String() string {
	return fmt.Sprintf("%#012x-%#012x %s", m.Base, m.Base+m.Pages*PageSize, m.Type)
}

// PageSize is the firmware allocation granule.
const PageSize = 0x1000
