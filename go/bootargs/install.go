package bootargs

import (
	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/models"
)

// Platform is what Install needs from the firmware.
type Platform interface {
	models.PageAllocator
	models.Memory
	MemoryMap() []models.MemoryDescriptor
	ConfigTables() []models.ConfigTable
}

// Install fills in a KernelArgs from the platform, writes it and a copy of the
// memory map into newly allocated loader data and returns its address.
func Install(p Platform, pcie uint64, log *models.Logger) (uint64, *KernelArgs, error) {
	k := &KernelArgs{PciePtr: pcie}
	tables := p.ConfigTables()
	for _, t := range tables {
		log.Debug("config table %s at %#x", firmware.TableName(t.GUID), t.Addr)
	}
	k.Populate(tables)

	// our own allocation can split a free range in the map
	slots := len(p.MemoryMap()) + 2
	size := uint64(ArgsSize + EntrySize*slots)
	pages := (size + models.PageSize - 1) / models.PageSize
	addr, err := p.AllocatePages(models.AnyAddress, pages, models.LoaderData)
	if err != nil {
		return 0, nil, errors.Wrap(err, "allocating kernel args")
	}
	if err := write(p, k, addr, slots); err != nil {
		release(p, addr, pages, log)
		return 0, nil, err
	}
	log.Info("kernel args at %#x: %s", addr, k)
	return addr, k, nil
}

func write(p Platform, k *KernelArgs, addr uint64, slots int) error {
	entries := convertMap(p.MemoryMap())
	if len(entries) > slots {
		return errors.Errorf("memory map grew to %d entries, room for %d", len(entries), slots)
	}
	k.MemmapPtr = addr + ArgsSize
	k.MemmapEntries = uint64(len(entries))

	data, err := k.Pack(entries)
	if err != nil {
		return err
	}
	if err := p.MemWrite(addr, data); err != nil {
		return errors.Wrapf(err, "writing kernel args at %#x", addr)
	}
	return nil
}

func release(p Platform, addr, pages uint64, log *models.Logger) {
	freer, ok := p.(models.PageFreer)
	if !ok {
		log.Warn("leaving kernel args pages at %#x allocated", addr)
		return
	}
	if err := freer.FreePages(addr, pages); err != nil {
		log.Warn("freeing kernel args pages at %#x: %v", addr, err)
	}
}
