package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	kboot "github.com/routeros/kboot/go"
	"github.com/routeros/kboot/go/models"
)

type strslice []string

func (s *strslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *strslice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// KbootCmd parses the options shared by every subcommand, then calls Run.
type KbootCmd struct {
	Config *models.Config
	Log    *models.Logger
	Flags  *flag.FlagSet

	// SetupFlags registers command specific flags.
	SetupFlags func() error
	Run        func(args []string) error
	Teardown   func()

	// Args describes the positional arguments in the usage line.
	Args string
	// NoPlatform hides the loader and machine options.
	NoPlatform bool

	platform platformFlags
	stderr   io.Writer
}

func NewKbootCmd() *KbootCmd {
	fs := flag.NewFlagSet("cli", flag.ExitOnError)
	return &KbootCmd{Flags: fs, stderr: os.Stderr}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints err, and in verbose mode the stack it was created on.
func (c *KbootCmd) PrintError(err error) {
	w := c.stderr
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Error: %s\n", err)
	fmt.Fprintf(w, "Status: %s\n", kboot.StatusOf(err))
	st, ok := err.(stackTracer)
	if !ok || c.Config == nil || !c.Config.Verbose {
		return
	}
	// parse full path and method name for each stack frame
	var frames [][]string
	for _, f := range st.StackTrace() {
		fullpath := ""
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)

		frame := fmt.Sprintf("%+s", f)
		tmp := strings.SplitN(frame, "\n", 3)
		if len(tmp) == 2 {
			pathsplit := strings.Split(tmp[0], "/")
			method = pathsplit[len(pathsplit)-1]
			fullpath = strings.TrimSpace(tmp[1])
		}
		frames = append(frames, []string{fullpath, fileline, method})
		if method == "main.main" {
			break
		}
	}
	widths := make([]int, 3)
	for _, f := range frames {
		for i, s := range f {
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}
	for _, f := range frames {
		for i := 0; i < 2; i++ {
			if widths[i] > 0 {
				pad := strings.Repeat(" ", widths[i]-len(f[i]))
				fmt.Fprintf(w, "%s%s | ", f[i], pad)
			}
		}
		fmt.Fprintf(w, "%s()\n", f[2])
	}
}

// Main parses argv and runs the command, returning the process exit code.
func (c *KbootCmd) Main(argv []string) int {
	fs := c.Flags
	esp := fs.String("esp", "", "host directory standing in for the EFI system partition (default: kboot config folder containing EFI, else ./esp)")
	verbose := fs.Bool("v", false, "verbose output: entry dump, disassembly, config tables")
	color := fs.Bool("color", false, "force colored log output")
	logfile := fs.String("log", "", "write the firmware log to file (default stderr)")

	if !c.NoPlatform {
		c.platform.register(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: %s [options] %s\n\nOptions:\n", fs.Name(), c.Args)
		var common, plat []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) {
			if c.platform.owns(f.Name) {
				plat = append(plat, f)
			} else {
				common = append(common, f)
			}
		})
		models.PrintFlags(c.stderr, common)
		if len(plat) > 0 {
			fmt.Fprintf(c.stderr, "\nBoot Options:\n")
			models.PrintFlags(c.stderr, plat)
		}
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			panic(err)
		}
	}
	fs.Init(argv[0], flag.ExitOnError)
	fs.Parse(argv[1:])

	config := &models.Config{
		ESPRoot: *esp,
		Color:   *color,
		Verbose: *verbose,
	}
	if !c.NoPlatform {
		c.platform.apply(config)
	}
	if *logfile != "" {
		out, err := os.OpenFile(*logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintln(c.stderr, err)
			return 1
		}
		defer out.Close()
		config.Output = out
	}
	c.Config = config
	c.Log = models.NewConfigLogger(config)

	if c.Teardown != nil {
		defer c.Teardown()
	}
	if err := c.Run(fs.Args()); err != nil {
		c.PrintError(err)
		if code := kboot.StatusOf(err).Code(); code != 0 {
			return code
		}
		return 1
	}
	return 0
}
