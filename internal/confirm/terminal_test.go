package confirm

import (
	"strings"
	"testing"

	"tidy-go/internal/safety"
)

func newTestConfirmer(input string, isTTY bool) (*TerminalConfirmer, *strings.Builder) {
	out := &strings.Builder{}
	c := &TerminalConfirmer{
		in:  strings.NewReader(input),
		out: out,
		tty: func() bool { return isTTY },
	}
	return c, out
}

func sampleRequest() *safety.ConfirmRequest {
	return &safety.ConfirmRequest{
		OpType:      safety.OpFileDelete,
		Targets:     []string{"/var/cache/app/a.tmp", "/var/cache/app/b.tmp"},
		Description: "cache cleanup",
		Warnings: []safety.CheckWarning{
			{Check: "disk_space", Message: "filesystem is low on space"},
		},
	}
}

func TestTerminalConfirmer_Accepts(t *testing.T) {
	for _, answer := range []string{"y\n", "Y\n", "yes\n", " yes \n"} {
		c, out := newTestConfirmer(answer, true)
		ok, err := c.Confirm(sampleRequest())
		if err != nil {
			t.Fatalf("Confirm(%q): %v", answer, err)
		}
		if !ok {
			t.Errorf("Confirm(%q) = false, want true", answer)
		}

		prompt := out.String()
		for _, want := range []string{"delete files", "/var/cache/app/a.tmp", "cache cleanup", "disk_space", "Proceed? [y/N]:"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
	}
}

func TestTerminalConfirmer_Declines(t *testing.T) {
	for _, answer := range []string{"n\n", "\n", "nope\n", ""} {
		c, _ := newTestConfirmer(answer, true)
		ok, err := c.Confirm(sampleRequest())
		if err != nil {
			t.Fatalf("Confirm(%q): %v", answer, err)
		}
		if ok {
			t.Errorf("Confirm(%q) = true, want false", answer)
		}
	}
}

// A pipe must never satisfy a confirmation gate.
func TestTerminalConfirmer_NonTTYDeclines(t *testing.T) {
	c, out := newTestConfirmer("y\n", false)
	ok, err := c.Confirm(sampleRequest())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if ok {
		t.Error("Confirm on a pipe = true, want false")
	}
	if !strings.Contains(out.String(), "not a terminal") {
		t.Errorf("output = %q, want non-terminal notice", out.String())
	}
}

func TestAutoConfirmer(t *testing.T) {
	for _, answer := range []bool{true, false} {
		c := &AutoConfirmer{Answer: answer}
		ok, err := c.Confirm(sampleRequest())
		if err != nil || ok != answer {
			t.Errorf("Confirm = (%v, %v), want (%v, nil)", ok, err, answer)
		}
	}
}
