package main

import (
	"github.com/routeros/kboot/go/cmd"

	_ "github.com/routeros/kboot/go/cmd/boot"
	_ "github.com/routeros/kboot/go/cmd/inspect"
	_ "github.com/routeros/kboot/go/cmd/mkkernel"
)

func main() { cmd.Main() }
