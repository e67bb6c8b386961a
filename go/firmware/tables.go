package firmware

import (
	"strings"

	"github.com/routeros/kboot/go/models"
)

var (
	ACPI2_GUID   = models.MustGUID("8868e871-e4f1-11d3-bc22-0080c73c8881")
	ACPI_GUID    = models.MustGUID("eb9d2d30-2d88-11d3-9a16-0090273fc14d")
	SMBIOS3_GUID = models.MustGUID("f2fd1544-9794-4a2c-992e-e5bbcf20e394")
	SMBIOS_GUID  = models.MustGUID("eb9d2d31-2d88-11d3-9a16-0090273fc14d")

	DEBUG_IMAGE_INFO_GUID          = models.MustGUID("49152e77-1ada-4764-b7a2-7afefed95e8b")
	DXE_SERVICES_GUID              = models.MustGUID("05ad34ba-6f02-4214-952e-4da0398e2bb9")
	ESRT_GUID                      = models.MustGUID("b122a263-3661-4f68-9929-78f8b0d62180")
	HAND_OFF_BLOCK_LIST_GUID       = models.MustGUID("7739f24c-93d7-11d4-9a3a-0090273fc14d")
	LZMA_COMPRESS_GUID             = models.MustGUID("ee4e5898-3914-4259-9d6e-dc7bd79403cf")
	MEMORY_STATUS_CODE_RECORD_GUID = models.MustGUID("060cc026-4c0d-4dda-8f41-595fef00a502")
	MEMORY_TYPE_INFORMATION_GUID   = models.MustGUID("4c19049f-4137-4dd3-9c10-8b97a83ffdfa")
	PROPERTIES_TABLE_GUID          = models.MustGUID("880aaca3-4adc-4a04-9079-b747340825e5")
	TIANO_COMPRESS_GUID            = models.MustGUID("a31280ad-481e-41b6-95e8-127f4c984779")
	MEMORY_ATTRIBUTES_TABLE_GUID   = models.MustGUID("dcfa911d-26eb-469f-a220-38b7dc461220")
)

var tableNames = map[models.GUID]string{
	ACPI2_GUID:                     "ACPI2",
	ACPI_GUID:                      "ACPI1",
	DEBUG_IMAGE_INFO_GUID:          "Debug Image",
	DXE_SERVICES_GUID:              "DXE Services",
	ESRT_GUID:                      "EFI System Resources",
	HAND_OFF_BLOCK_LIST_GUID:       "Hand-off Block List",
	LZMA_COMPRESS_GUID:             "LZMA Compressed filesystem",
	MEMORY_STATUS_CODE_RECORD_GUID: "Hand-off Status Code",
	MEMORY_TYPE_INFORMATION_GUID:   "Memory Type Information",
	PROPERTIES_TABLE_GUID:          "Properties Table",
	SMBIOS3_GUID:                   "SMBIOS3",
	SMBIOS_GUID:                    "SMBIOS1",
	TIANO_COMPRESS_GUID:            "Tiano compressed filesystem",
	MEMORY_ATTRIBUTES_TABLE_GUID:   "Memory Attributes",
}

// TableName names a configuration table, falling back to its GUID.
func TableName(g models.GUID) string {
	if name, ok := tableNames[g]; ok {
		return name
	}
	return g.String()
}

// LookupTable resolves a table name (case-insensitive) or a GUID string.
func LookupTable(name string) (models.GUID, bool) {
	for g, n := range tableNames {
		if strings.EqualFold(n, name) {
			return g, true
		}
	}
	g, err := models.ParseGUID(name)
	return g, err == nil
}
