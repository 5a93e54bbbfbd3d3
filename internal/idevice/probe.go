package idevice

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const probeTimeout = 5 * time.Second

// Probe describes the availability of one toolset executable.
type Probe struct {
	Name    string
	Path    string
	Version string
	Err     error
}

// Missing reports whether the executable could not be resolved at all.
func (p Probe) Missing() bool {
	return p.Path == ""
}

// ProbeAll resolves every required executable and captures its --version
// output. Probes run concurrently; result order matches RequiredTools.
func (t *Toolset) ProbeAll(ctx context.Context) []Probe {
	probes := make([]Probe, len(RequiredTools))
	var g errgroup.Group
	for i, name := range RequiredTools {
		i, name := i, name
		g.Go(func() error {
			probes[i] = t.probe(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return probes
}

func (t *Toolset) probe(ctx context.Context, name string) Probe {
	p := Probe{Name: name}
	path, err := t.Resolve(name)
	if err != nil {
		p.Err = err
		return p
	}
	p.Path = path
	vctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(vctx, path, "--version").CombinedOutput()
	if err != nil {
		p.Err = fmt.Errorf("%s --version: %w", name, err)
		return p
	}
	p.Version = firstLine(string(out))
	return p
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
