package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/mobiletriage/idcap/internal/idevice"
)

func TestDoctorReportsHealthyToolset(t *testing.T) {
	isolateHome(t)
	stubProbes(t, []idevice.Probe{
		{Name: "idevice_id", Path: "/opt/ios/idevice_id", Version: "idevice_id 1.3.0"},
		{Name: "idevicesyslog", Path: "/opt/ios/idevicesyslog", Version: "idevicesyslog 1.3.0"},
	})

	out, err := runRoot(t, "doctor")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "All 2 tools available.") {
		t.Fatalf("expected healthy summary, got: %q", out)
	}
	if !strings.Contains(out, "idevice_id 1.3.0") {
		t.Fatalf("expected probe version in table, got: %q", out)
	}
}

func TestDoctorFailsWhenToolsMissing(t *testing.T) {
	isolateHome(t)
	stubProbes(t, []idevice.Probe{
		{Name: "idevice_id", Path: "/opt/ios/idevice_id", Version: "idevice_id 1.3.0"},
		{Name: "idevicesyslog", Err: errors.New(`exec: "idevicesyslog": executable file not found in $PATH`)},
	})

	out, err := runRoot(t, "doctor")
	if err == nil || !strings.Contains(err.Error(), "capture tools missing") {
		t.Fatalf("expected missing-tools error, got %v", err)
	}
	if !strings.Contains(out, "missing") {
		t.Fatalf("expected missing status in table, got: %q", out)
	}
	if !strings.Contains(out, "idcap install") {
		t.Fatalf("expected install hint, got: %q", out)
	}
}

func TestDoctorMarksProbeFailuresAsErrors(t *testing.T) {
	isolateHome(t)
	stubProbes(t, []idevice.Probe{
		{Name: "ideviceinfo", Path: "/opt/ios/ideviceinfo", Err: errors.New("ideviceinfo --version: exit status 1")},
	})

	out, err := runRoot(t, "doctor")
	if err != nil {
		t.Fatalf("a probe error alone should not fail doctor, got %v", err)
	}
	if !strings.Contains(out, "error") {
		t.Fatalf("expected error status in table, got: %q", out)
	}
	if !strings.Contains(out, "failed their version probe") {
		t.Fatalf("expected probe failure summary, got: %q", out)
	}
}
