// Command pyrv32 boots a bare-metal RV32IM ELF image, services its MMIO
// devices, and emulates its Linux ECALL syscalls against a sandboxed host
// filesystem.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyrv32/pyrv32/internal/bus"
	"github.com/pyrv32/pyrv32/internal/debugger"
	"github.com/pyrv32/pyrv32/internal/errno"
	"github.com/pyrv32/pyrv32/internal/log"
	"github.com/pyrv32/pyrv32/internal/machine"
	"github.com/pyrv32/pyrv32/internal/script"
	"github.com/pyrv32/pyrv32/internal/trace"
	"github.com/pyrv32/pyrv32/internal/ui/colorize"
)

var (
	ramSize    int
	rootDir    string
	guestCwd   string
	stdinPath  string
	stdoutPath string
	stderrPath string
	configPath string
	envVars    []string
	traceOn    bool
	debugOn    bool
	scriptPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pyrv32 [flags] <program.elf> [args…]",
		Short: "Run a bare-metal RV32IM ELF image",
		Long: `pyrv32 boots an RV32IM ELF image into simulated RAM, steps instructions
in a fetch-decode-execute loop, services memory-mapped UARTs and clocks, and
emulates a small set of Linux syscalls invoked via ECALL against a
sandboxed host filesystem.

Examples:
  pyrv32 hello.elf                       # run to completion
  pyrv32 --trace fib.elf                 # colorized per-instruction trace
  pyrv32 --debug fib.elf                 # step/breakpoint TUI
  pyrv32 prog.elf arg1 arg2 --env K=v    # argv/envp passthrough
  pyrv32 info prog.elf                   # header summary, no execution`,
		Args:                  cobra.MinimumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE:                  runMachine,
	}

	rootCmd.Flags().IntVar(&ramSize, "ram", bus.DefaultRAMSize, "RAM size in bytes")
	rootCmd.Flags().StringVar(&rootDir, "root", ".", "sandbox root directory for guest filesystem syscalls")
	rootCmd.Flags().StringVar(&guestCwd, "cwd", "/", "initial guest working directory")
	rootCmd.Flags().StringVar(&stdinPath, "stdin", "tty", "path to read console RX from, or \"tty\"")
	rootCmd.Flags().StringVar(&stdoutPath, "stdout", "tty", "path to write console UART to, or \"tty\"")
	rootCmd.Flags().StringVar(&stderrPath, "stderr", "tty", "path to write debug UART + diagnostics to, or \"tty\"")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file supplying flag defaults")
	rootCmd.Flags().StringArrayVar(&envVars, "env", nil, "guest environment variable KEY=VALUE (repeatable)")
	rootCmd.Flags().BoolVar(&traceOn, "trace", false, "record and print a colorized instruction trace")
	rootCmd.Flags().BoolVar(&debugOn, "debug", false, "launch the interactive step/breakpoint debugger")
	rootCmd.Flags().StringVar(&scriptPath, "script", "", "goja JS file registering onAddress/onMMIO hooks")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug logging")

	infoCmd := &cobra.Command{
		Use:   "info <program.elf>",
		Short: "Print ELF header and segment summary without executing",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}
	rootCmd.AddCommand(infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return 2
}

type cliError struct {
	code int
	err  error
}

func (c *cliError) Error() string { return c.err.Error() }

func runMachine(cmd *cobra.Command, args []string) error {
	applyConfigFile(cmd)

	elfPath := args[0]

	stdout, closeOut, err := openStream(stdoutPath, os.Stdout, true)
	if err != nil {
		return &cliError{2, err}
	}
	defer closeOut()
	stderr, closeErr, err := openStream(stderrPath, os.Stderr, true)
	if err != nil {
		return &cliError{2, err}
	}
	defer closeErr()

	log.Init(verbose)
	logger := log.L

	var collector *trace.Collector
	if traceOn {
		collector = trace.NewCollector(4096)
	}

	m, err := machine.New(machine.Config{
		RAMSize: ramSize,
		RootDir: rootDir,
		Stdout:  stdout,
		Stderr:  stderr,
		Logger:  logger,
		Trace:   collector,
	})
	if err != nil {
		return &cliError{2, fmt.Errorf("pyrv32: %w", err)}
	}
	if guestCwd != "/" {
		if en := m.VFS.Chdir(guestCwd); en != errno.OK {
			return &cliError{2, fmt.Errorf("pyrv32: --cwd %s: %s", guestCwd, en)}
		}
	}

	if scriptPath != "" {
		hooks, err := script.Load(scriptPath, m.CPU, m.Bus)
		if err != nil {
			return &cliError{2, fmt.Errorf("pyrv32: %w", err)}
		}
		m.SetHooks(hooks)
	}

	if err := m.LoadELF(elfPath, args, envVars); err != nil {
		return &cliError{2, err}
	}

	stopPump := pumpStdin(stdinPath, m)
	defer stopPump()

	if debugOn {
		if err := debugger.Run(m); err != nil {
			return &cliError{1, err}
		}
		printTrace(stderr, collector)
		os.Exit(int(m.CPU.ExitCode))
	}

	exitCode, fatal := m.Run()
	if fatal != nil {
		printTrace(stderr, collector)
		fmt.Fprintf(stderr, "[%s at pc=0x%08x, value=0x%08x]\n", fatal.Kind, fatal.PC, fatal.Value)
		return &cliError{1, fmt.Errorf("pyrv32: unrecovered %s", fatal.Kind)}
	}
	printTrace(stderr, collector)
	fmt.Fprintf(stderr, "[Program exited with status %d]\n", exitCode)
	os.Exit(exitCode)
	return nil
}

// printTrace renders the collected instruction trace, if tracing was
// enabled, to w. A nil collector (the --trace flag was not given) is a
// silent no-op.
func printTrace(w io.Writer, collector *trace.Collector) {
	if collector == nil {
		return
	}
	fmt.Fprint(w, colorize.RenderTrace(collector.Events()))
}

func showInfo(cmd *cobra.Command, args []string) error {
	return printELFInfo(args[0])
}
