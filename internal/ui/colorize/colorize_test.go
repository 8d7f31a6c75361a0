package colorize

import (
	"os"
	"strings"
	"testing"

	"github.com/pyrv32/pyrv32/internal/trace"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv: %v", err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestIsDisabledRespectsNoColor(t *testing.T) {
	os.Unsetenv("PYRV32_NO_COLOR")
	os.Unsetenv("NO_COLOR")
	if IsDisabled() {
		t.Fatal("expected colors enabled with no env vars set")
	}
	withEnv(t, "NO_COLOR", "1")
	if !IsDisabled() {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestIsDisabledRespectsPyrv32NoColor(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	withEnv(t, "PYRV32_NO_COLOR", "1")
	if !IsDisabled() {
		t.Error("PYRV32_NO_COLOR should disable colors")
	}
}

func TestPlainFormattersPassThroughWhenDisabled(t *testing.T) {
	withEnv(t, "NO_COLOR", "1")
	if got := Tag("#branch"); got != "#branch" {
		t.Errorf("Tag = %q, want unmodified", got)
	}
	if got := Detail("addi a0, a0, 1"); got != "addi a0, a0, 1" {
		t.Errorf("Detail = %q, want unmodified", got)
	}
	if got := Instruction("addi a0, a0, 1"); got != "addi a0, a0, 1" {
		t.Errorf("Instruction = %q, want unmodified", got)
	}
	if got := Address(0x1000); got != "00001000" {
		t.Errorf("Address = %q, want 00001000", got)
	}
}

func TestInstructionWrapsWithEscapeCodesWhenEnabled(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	os.Unsetenv("PYRV32_NO_COLOR")
	got := Instruction("addi a0, a0, 1")
	if !strings.Contains(got, "\033[") {
		t.Errorf("Instruction() = %q, want ANSI escape sequence", got)
	}
}

func TestAddressFormatsAsUppercaseHex(t *testing.T) {
	withEnv(t, "NO_COLOR", "1")
	if got := Address(0xDEADBEEF); got != "DEADBEEF" {
		t.Errorf("Address(0xDEADBEEF) = %q, want DEADBEEF", got)
	}
}

func TestRenderTraceFormatsOneLinePerEvent(t *testing.T) {
	withEnv(t, "NO_COLOR", "1")
	events := []*trace.Event{
		trace.NewEvent(0x1000, trace.ALU, "addi", "addi a0, a0, 1"),
		trace.NewEvent(0x1004, trace.Ecall, "ecall", "ecall"),
	}
	events[1].AddTag(trace.Ecall)

	out := RenderTrace(events)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderTrace produced %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "00001000") || !strings.Contains(lines[0], "addi a0, a0, 1") {
		t.Errorf("line 0 = %q, want address and disassembly", lines[0])
	}
	if !strings.Contains(lines[1], "#ecall") {
		t.Errorf("line 1 = %q, want #ecall tag", lines[1])
	}
}

func TestRenderTraceEmptyEventsIsEmptyString(t *testing.T) {
	if got := RenderTrace(nil); got != "" {
		t.Errorf("RenderTrace(nil) = %q, want empty string", got)
	}
}
