// Package pxe registers booting machines with pxemngr so that their next
// boot is served from the local disk once provisioning is done.
package pxe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"bootmatch/internal/hw"
	"bootmatch/internal/matcher"
	"bootmatch/pkg/logging"
)

// ErrNoMACs is returned when the facts carry no network interface serial.
var ErrNoMACs = errors.New("unable to detect network macs")

var (
	sysnamePattern = matcher.P(matcher.Literal("system"), matcher.Literal("product"), matcher.Literal("serial"), matcher.Bind("sysname"))
	macsPattern    = matcher.P(matcher.Literal("network"), matcher.Bind("eth"), matcher.Literal("serial"), matcher.Collect("macs"))
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Registrar runs "<command> addsystem <sysname> <mac>...".
type Registrar struct {
	command string
	url     string
	run     Runner
}

// NewRegistrar returns a Registrar using the pxemngr executable command.
// url is the pxemngr base URL used by Trailer.
func NewRegistrar(command, url string) *Registrar {
	return &Registrar{command: command, url: url, run: execRunner}
}

// WithRunner replaces the command runner, for tests.
func (r *Registrar) WithRunner(run Runner) *Registrar {
	r.run = run
	return r
}

// System is what gets registered for a machine.
type System struct {
	Name string
	MACs []string
}

// Identify derives the system name and MAC addresses from facts. The name is
// the product serial, or the first MAC without colons when there is none.
func Identify(facts hw.Facts) (System, error) {
	vars := matcher.Bindings{}
	if _, err := matcher.MatchOne(sysnamePattern, facts, vars); err != nil {
		return System{}, err
	}
	ok, err := matcher.MatchCollect(macsPattern, facts, vars)
	if err != nil {
		return System{}, err
	}
	if !ok {
		return System{}, ErrNoMACs
	}

	var sys System
	for _, v := range vars["macs"].([]any) {
		sys.MACs = append(sys.MACs, fmt.Sprint(v))
	}
	if name, ok := vars["sysname"]; ok {
		sys.Name = fmt.Sprint(name)
	} else {
		sys.Name = strings.ReplaceAll(sys.MACs[0], ":", "")
	}
	return sys, nil
}

// Register identifies the machine and adds it to pxemngr.
func (r *Registrar) Register(ctx context.Context, facts hw.Facts) (System, error) {
	sys, err := Identify(facts)
	if err != nil {
		return System{}, err
	}
	args := append([]string{"addsystem", sys.Name}, sys.MACs...)
	out, err := r.run(ctx, r.command, args...)
	cmdline := r.command + " " + strings.Join(args, " ")
	if err != nil {
		return sys, fmt.Errorf("%s: %w: %s", cmdline, err, strings.TrimSpace(string(out)))
	}
	logging.Info("PXE", "%s -> %s", cmdline, strings.TrimSpace(string(out)))
	return sys, nil
}

// Trailer is appended to the response so the machine switches pxemngr to
// local boot once its configuration has run.
func (r *Registrar) Trailer() string {
	return fmt.Sprintf("\nrun('curl -s %slocalboot/')\n", r.url)
}
