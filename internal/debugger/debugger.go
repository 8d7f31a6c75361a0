// Package debugger is an interactive step/breakpoint TUI built on
// bubbletea. It reimagines KTStephano-GVM's line-oriented
// RunProgramDebugMode REPL (n/next, r/run, b/break <addr>) as a bubbletea
// Model, using bubbles/textinput for the command line and lipgloss for
// panel styling instead of bufio.Reader and raw fmt.Print.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pyrv32/pyrv32/internal/bus"
	"github.com/pyrv32/pyrv32/internal/cpu"
	"github.com/pyrv32/pyrv32/internal/machine"
	"github.com/pyrv32/pyrv32/internal/trap"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#56B6C2"))
	breakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF80C0"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC800"))
)

// Run starts the debugger TUI over m and blocks until the guest halts or
// the user quits.
func Run(m *machine.Machine) error {
	model := newModel(m)
	p := tea.NewProgram(model)
	_, err := p.Run()
	return err
}

type model struct {
	m          *machine.Machine
	input      textinput.Model
	running    bool
	breakpoint map[uint32]struct{}
	history    []string
	lastTrap   *trap.Trap
	quit       bool
}

func newModel(m *machine.Machine) *model {
	ti := textinput.New()
	ti.Placeholder = "n(ext) / r(un) / b(reak) <addr> / q(uit)"
	ti.Focus()
	ti.CharLimit = 64
	return &model{
		m:          m,
		input:      ti,
		breakpoint: make(map[uint32]struct{}),
	}
}

func (mo *model) Init() tea.Cmd {
	return textinput.Blink
}

func (mo *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			mo.quit = true
			return mo, tea.Quit
		case tea.KeyEnter:
			cmd := strings.TrimSpace(mo.input.Value())
			mo.input.SetValue("")
			mo.execCommand(cmd)
			if mo.quit || mo.m.CPU.Halted {
				return mo, tea.Quit
			}
			return mo, nil
		}
	}
	var cmd tea.Cmd
	mo.input, cmd = mo.input.Update(msg)
	return mo, cmd
}

func (mo *model) execCommand(line string) {
	mo.history = append(mo.history, line)
	switch {
	case line == "n" || line == "next" || line == "":
		mo.step()
	case line == "r" || line == "run":
		mo.runToBreakpointOrHalt()
	case line == "q" || line == "quit":
		mo.quit = true
	case line == "b" || strings.HasPrefix(line, "b ") ||
		line == "break" || strings.HasPrefix(line, "break "):
		mo.toggleBreakpoint(strings.TrimSpace(strings.TrimPrefix(line, "b")))
	default:
		mo.history = append(mo.history, fmt.Sprintf("unknown command: %q", line))
	}
}

func (mo *model) toggleBreakpoint(arg string) {
	arg = strings.TrimPrefix(arg, "reak")
	arg = strings.TrimSpace(arg)
	addr, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 32)
	if err != nil {
		mo.history = append(mo.history, fmt.Sprintf("bad address: %q", arg))
		return
	}
	a := uint32(addr)
	if _, ok := mo.breakpoint[a]; ok {
		delete(mo.breakpoint, a)
		mo.history = append(mo.history, fmt.Sprintf("breakpoint cleared at 0x%08x", a))
	} else {
		mo.breakpoint[a] = struct{}{}
		mo.history = append(mo.history, fmt.Sprintf("breakpoint set at 0x%08x", a))
	}
}

func (mo *model) step() {
	res := mo.m.Step()
	mo.lastTrap = res.Trap
	if res.Trap != nil && !res.Dispatched {
		mo.history = append(mo.history, fmt.Sprintf("trap: %s at pc=0x%08x", res.Trap.Kind, res.Trap.PC))
	}
}

func (mo *model) runToBreakpointOrHalt() {
	for !mo.m.CPU.Halted {
		if _, hit := mo.breakpoint[mo.m.CPU.PC]; hit {
			mo.history = append(mo.history, fmt.Sprintf("breakpoint hit at 0x%08x", mo.m.CPU.PC))
			return
		}
		res := mo.m.Step()
		if res.Trap != nil && !res.Dispatched {
			mo.lastTrap = res.Trap
			mo.history = append(mo.history, fmt.Sprintf("trap: %s at pc=0x%08x", res.Trap.Kind, res.Trap.PC))
			return
		}
	}
}

func (mo *model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("pyrv32 debugger") + "\n")
	b.WriteString(mo.registerPanel())
	b.WriteString("\n")

	if word, fault := mo.m.Bus.Load(mo.m.CPU.PC, 32); fault == bus.FaultNone {
		inst := cpu.Decode(word)
		b.WriteString(fmt.Sprintf("pc=0x%08x  %s\n", mo.m.CPU.PC, inst.String()))
	}

	if len(mo.breakpoint) > 0 {
		addrs := make([]string, 0, len(mo.breakpoint))
		for a := range mo.breakpoint {
			addrs = append(addrs, fmt.Sprintf("0x%08x", a))
		}
		b.WriteString(breakStyle.Render("breakpoints: "+strings.Join(addrs, ", ")) + "\n")
	}

	for _, h := range tail(mo.history, 8) {
		b.WriteString(dimStyle.Render(h) + "\n")
	}

	if mo.m.CPU.Halted {
		b.WriteString(fmt.Sprintf("\nhalted, exit code %d\n", mo.m.CPU.ExitCode))
	} else {
		b.WriteString("\n" + promptStyle.Render("-> ") + mo.input.View())
	}
	return b.String()
}

func (mo *model) registerPanel() string {
	var b strings.Builder
	for i := 0; i < 32; i += 4 {
		for j := 0; j < 4; j++ {
			b.WriteString(fmt.Sprintf("x%-2d=0x%08x  ", i+j, mo.m.CPU.X(uint32(i+j))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
