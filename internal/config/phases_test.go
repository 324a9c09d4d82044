package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePhaseFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool_phases.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing phase file: %v", err)
	}
	return path
}

const samplePhases = `
phases:
  1:
    - list_emails
    - get_email_details
  2:
    - trash_emails
  3:
    - apply_rules
    - delete_emails_permanently
`

func TestLoadPhases(t *testing.T) {
	pc, err := LoadPhases(writePhaseFile(t, samplePhases))
	if err != nil {
		t.Fatalf("LoadPhases: %v", err)
	}
	if len(pc.Phases) != 3 {
		t.Errorf("got %d phases, want 3", len(pc.Phases))
	}
	if len(pc.Phases[1]) != 2 {
		t.Errorf("phase 1 has %d tools, want 2", len(pc.Phases[1]))
	}
}

func TestLoadPhasesErrors(t *testing.T) {
	if _, err := LoadPhases(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := LoadPhases(writePhaseFile(t, "not: [valid: yaml")); err == nil {
		t.Error("malformed YAML should fail")
	}
	if _, err := LoadPhases(writePhaseFile(t, "phases: {}")); err == nil {
		t.Error("empty phase map should fail")
	}
}

func TestNewPhaseGateRejectsBadConfig(t *testing.T) {
	pc := &PhaseConfig{Phases: map[int][]string{0: {"x"}}}
	if _, err := NewPhaseGate(pc, 1); err == nil {
		t.Error("phase 0 should be rejected")
	}

	pc = &PhaseConfig{Phases: map[int][]string{1: {"x"}, 2: {"x"}}}
	if _, err := NewPhaseGate(pc, 1); err == nil {
		t.Error("a tool assigned to two phases should be rejected")
	}

	pc = &PhaseConfig{Phases: map[int][]string{1: {"x"}}}
	if _, err := NewPhaseGate(pc, 5); err == nil {
		t.Error("initial phase beyond the maximum should be rejected")
	}
}

func TestPhaseGateExposure(t *testing.T) {
	pc, err := LoadPhases(writePhaseFile(t, samplePhases))
	if err != nil {
		t.Fatalf("LoadPhases: %v", err)
	}
	gate, err := NewPhaseGate(pc, 1)
	if err != nil {
		t.Fatalf("NewPhaseGate: %v", err)
	}

	if gate.Current() != 1 {
		t.Errorf("Current() = %d, want 1", gate.Current())
	}
	if gate.MaxPhase() != 3 {
		t.Errorf("MaxPhase() = %d, want 3", gate.MaxPhase())
	}

	if !gate.Allowed("list_emails") {
		t.Error("phase 1 tool should be allowed at phase 1")
	}
	if gate.Allowed("trash_emails") {
		t.Error("phase 2 tool should be gated at phase 1")
	}
	if gate.Allowed("apply_rules") {
		t.Error("phase 3 tool should be gated at phase 1")
	}
	if !gate.Allowed("unconfigured_tool") {
		t.Error("tools absent from the config default to allowed")
	}
	if gate.Phase("apply_rules") != 3 {
		t.Errorf("Phase(apply_rules) = %d, want 3", gate.Phase("apply_rules"))
	}

	if err := gate.SetPhase(2); err != nil {
		t.Fatalf("SetPhase(2): %v", err)
	}
	if !gate.Allowed("trash_emails") {
		t.Error("phase 2 tool should be allowed at phase 2")
	}
	if gate.Allowed("apply_rules") {
		t.Error("phase 3 tool should still be gated at phase 2")
	}

	if err := gate.SetPhase(4); err == nil {
		t.Error("SetPhase beyond the maximum should fail")
	}
	if gate.Current() != 2 {
		t.Error("failed SetPhase must leave the gate unchanged")
	}

	exposed := gate.Exposed()
	if len(exposed) != 3 {
		t.Errorf("Exposed() at phase 2 = %v, want 3 tools", exposed)
	}
}
