//go:build linux

package main

import "testing"

func TestNewRunFlagSetDefaults(t *testing.T) {
	_, f := newRunFlagSet("trace")
	if f.output != "out" {
		t.Errorf("default output = %q, want %q", f.output, "out")
	}
	if f.intel || f.verbose || f.debug {
		t.Error("boolean flags should default to false")
	}
	if f.maxSteps != 0 {
		t.Errorf("default maxSteps = %d, want 0 (unlimited)", f.maxSteps)
	}
}

func TestParseTargetRequiresTarget(t *testing.T) {
	fs, _ := newRunFlagSet("trace")
	if _, _, err := parseTarget(fs, []string{"-o", "out"}); err == nil {
		t.Fatal("expected an error when no target executable is given")
	}
}

func TestParseTargetSplitsFlagsAndArgs(t *testing.T) {
	fs, f := newRunFlagSet("trace")
	target, targetArgs, err := parseTarget(fs, []string{"-i", "--max-steps", "100", "/bin/true", "--flag-for-target"})
	if err != nil {
		t.Fatalf("parseTarget: %v", err)
	}
	if !f.intel {
		t.Error("expected -i to set intel syntax")
	}
	if f.maxSteps != 100 {
		t.Errorf("maxSteps = %d, want 100", f.maxSteps)
	}
	if target != "/bin/true" {
		t.Errorf("target = %q, want /bin/true", target)
	}
	if len(targetArgs) != 1 || targetArgs[0] != "--flag-for-target" {
		t.Errorf("targetArgs = %v, want [--flag-for-target]", targetArgs)
	}
}
