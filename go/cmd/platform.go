package cmd

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/routeros/kboot/go/cpu/unicorn"
	"github.com/routeros/kboot/go/firmware"
	"github.com/routeros/kboot/go/models"
	"github.com/routeros/kboot/go/native"
)

type platformFlags struct {
	names []string

	platform *string
	ram      *uint64
	timeout  *time.Duration
	count    *uint64
	tables   strslice

	rollback *bool
	overlap  *string
	nocheck  *bool
	bootargs *bool
	keepbs   *bool
	pcie     *uint64
}

func (p *platformFlags) register(fs *flag.FlagSet) {
	p.platform = fs.String("platform", "sim", "machine to boot on: sim, unicorn or native (linux/amd64 only)")
	p.ram = fs.Uint64("ram", 0x10000000, "installed RAM in bytes")
	p.timeout = fs.Duration("timeout", 10*time.Second, "unicorn: stop the kernel after this long (0 for no limit)")
	p.count = fs.Uint64("count", 0, "unicorn: stop the kernel after this many instructions (0 for no limit)")
	fs.Var(&p.tables, "table", "install a configuration table, name=addr (e.g. ACPI2=0xe0000); repeatable")
	p.rollback = fs.Bool("rollback", false, "free already allocated pages when a load fails")
	p.overlap = fs.String("overlap", "reject", "overlapping segments: reject, or merge to let later segments overwrite earlier ones")
	p.nocheck = fs.Bool("nocheck", false, "jump even if the entry point is not inside a loaded segment")
	p.bootargs = fs.Bool("bootargs", false, "pass a kernel argument block (ACPI, SMBIOS, PCIe, memory map) in rdi")
	p.keepbs = fs.Bool("keepbs", false, "do not exit boot services before the handoff")
	p.pcie = fs.Uint64("pcie", 0, "PCI Express ECAM base for the kernel argument block")
	p.names = []string{"platform", "ram", "timeout", "count", "table", "rollback", "overlap", "nocheck", "bootargs", "keepbs", "pcie"}
}

func (p *platformFlags) owns(name string) bool {
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return false
}

func (p *platformFlags) apply(c *models.Config) {
	c.Rollback = *p.rollback
	c.MergeOverlap = *p.overlap == "merge"
	c.SkipEntryCheck = *p.nocheck
	c.BootArgs = *p.bootargs
	c.KeepBootServices = *p.keepbs
	c.PCIe = *p.pcie
}

func parseTables(specs []string) ([]models.ConfigTable, error) {
	var tables []models.ConfigTable
	for _, spec := range specs {
		split := strings.SplitN(spec, "=", 2)
		if len(split) != 2 {
			return nil, errors.Errorf("bad table %q, want name=addr", spec)
		}
		guid, ok := firmware.LookupTable(split[0])
		if !ok {
			return nil, errors.Errorf("unknown table %q", split[0])
		}
		addr, err := strconv.ParseUint(split[1], 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s", split[0])
		}
		tables = append(tables, models.ConfigTable{GUID: guid, Addr: addr})
	}
	return tables, nil
}

// MakePlatform builds the machine selected with -platform. The returned
// function releases it.
func (c *KbootCmd) MakePlatform() (models.Platform, func(), error) {
	if c.NoPlatform {
		return nil, nil, errors.New("command has no platform")
	}
	f := &c.platform
	if *f.overlap != "reject" && *f.overlap != "merge" {
		return nil, nil, errors.Errorf("-overlap must be reject or merge, not %q", *f.overlap)
	}
	tables, err := parseTables(f.tables)
	if err != nil {
		return nil, nil, err
	}
	ram := *f.ram &^ (models.PageSize - 1)
	var svc *firmware.Services
	var plat models.Platform
	closer := func() {}
	switch *f.platform {
	case "sim":
		sim := firmware.NewSim(ram, c.Log)
		svc, plat = sim.Services, sim
	case "unicorn":
		u, err := unicorn.NewPlatform(ram, os.Stdout, c.Log)
		if err != nil {
			return nil, nil, err
		}
		u.Timeout, u.Count = *f.timeout, *f.count
		svc, plat = u.Services, u
		closer = func() { u.Close() }
	case "native":
		n, err := native.NewPlatform(ram, c.Log)
		if err != nil {
			return nil, nil, err
		}
		svc, plat = n.Services, n
	default:
		return nil, nil, errors.Errorf("unknown platform %q", *f.platform)
	}
	svc.Tables = tables
	return plat, closer, nil
}
