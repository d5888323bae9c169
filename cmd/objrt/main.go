// objrt boots a guest object runtime and inspects it: the registered class
// tree, keyed archives, and the runtime's behavioural self-checks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/Doodledash6/touchHLE/archive"
	"github.com/Doodledash6/touchHLE/config"
	"github.com/Doodledash6/touchHLE/diag"
	"github.com/Doodledash6/touchHLE/foundation"
	"github.com/Doodledash6/touchHLE/mem"
	"github.com/Doodledash6/touchHLE/objc"
)

var log = commonlog.GetLogger("objrt")

// verbosityFlag counts repeated -v flags.
type verbosityFlag int

func (v *verbosityFlag) String() string   { return fmt.Sprint(int(*v)) }
func (v *verbosityFlag) IsBoolFlag() bool { return true }
func (v *verbosityFlag) Set(string) error {
	*v++
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (status int) {
	fs := flag.NewFlagSet("objrt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var verbosity verbosityFlag
	configDir := fs.String("config", ".", "Directory to search (upwards) for touchhle.toml")
	fs.Var(&verbosity, "v", "Increase log verbosity (repeatable)")
	showClasses := fs.Bool("classes", false, "Print the registered class hierarchy")
	decode := fs.String("decode", "", "Unarchive a CBOR keyed archive and describe its root")
	check := fs.Bool("check", false, "Run the runtime self-checks")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: objrt [options]\n\n")
		fmt.Fprintf(stderr, "Boots a guest object runtime with Foundation registered.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  objrt -classes             # Print the class tree\n")
		fmt.Fprintf(stderr, "  objrt -decode scene.cbor   # Describe an archive's root object\n")
		fmt.Fprintf(stderr, "  objrt -check -v -v         # Run self-checks with debug logging\n")
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if cfg == nil {
		cfg = config.Default()
	}

	level := cfg.Log.Verbosity + int(verbosity)
	if path := cfg.LogPath(); path != "" {
		commonlog.Configure(level, &path)
	} else {
		commonlog.Configure(level, nil)
	}

	// Fatal runtime errors abort the process; nothing below recovers them.
	defer func() {
		if r := recover(); r != nil {
			var fe *objc.FatalError
			var fault *mem.Fault
			switch e := r.(type) {
			case error:
				if !errors.As(e, &fe) && !errors.As(e, &fault) {
					panic(r)
				}
				log.Criticalf("%v", e)
				fmt.Fprintf(stderr, "Fatal: %v\n", e)
				status = 2
			default:
				panic(r)
			}
		}
	}()

	ctx := context.Background()
	rt, closeRuntime, err := boot(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeRuntime()

	var rec *diag.Recorder
	if cfg.Dispatch.Unimplemented == config.PolicyStub || cfg.DatabasePath() != "" {
		rec = diag.NewRecorder()
		rec.Attach(rt, cfg.Dispatch.Unimplemented == config.PolicyStub)
	}

	did := false
	if *showClasses {
		did = true
		printClassTree(stdout, rt)
	}
	if *decode != "" {
		did = true
		if err := describeArchive(stdout, rt, *decode); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if *check {
		did = true
		if failed := runChecks(stdout, newCheckRuntime); failed > 0 {
			fmt.Fprintf(stderr, "%d check(s) failed\n", failed)
			status = 1
		}
	}
	if !did {
		fs.Usage()
		return 1
	}

	if rec != nil && cfg.DatabasePath() != "" {
		if err := flushDiagnostics(ctx, cfg.DatabasePath(), rec); err != nil {
			fmt.Fprintf(stderr, "Error writing diagnostics: %v\n", err)
			return 1
		}
	}
	return status
}

// boot creates the address space the configuration asks for and a runtime
// with Foundation registered on it.
func boot(ctx context.Context, cfg *config.Config) (*objc.Runtime, func(), error) {
	var space mem.Space
	closeSpace := func() {}

	switch cfg.Memory.Backend {
	case config.BackendWazero:
		ws, err := mem.NewWazeroSpace(ctx, cfg.Memory.Size)
		if err != nil {
			return nil, nil, fmt.Errorf("creating wazero memory: %w", err)
		}
		space = ws
		closeSpace = func() {
			if err := ws.Close(ctx); err != nil {
				log.Warningf("closing wazero memory: %v", err)
			}
		}
	default:
		space = mem.NewFlatSpace(uint32(cfg.Memory.Size))
	}

	m := mem.New(space, mem.Ptr(cfg.Memory.HeapBase))
	log.Debugf("%s memory, %d bytes, heap at 0x%x", cfg.Memory.Backend, cfg.Memory.Size, cfg.Memory.HeapBase)
	return foundation.NewRuntime(m), closeSpace, nil
}

func newCheckRuntime() *objc.Runtime {
	return foundation.NewRuntime(mem.New(mem.NewFlatSpace(1<<20), 0x10000))
}

func describeArchive(w io.Writer, rt *objc.Runtime, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	root, err := archive.Unarchive(rt, data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer rt.Release(root)

	class := rt.ClassOf(root)
	if rt.RespondsTo(root, "count") {
		fmt.Fprintf(w, "%s (%d elements)\n", class.Name, rt.Send(root, "count"))
	} else {
		fmt.Fprintf(w, "%s\n", class.Name)
	}
	return nil
}

func flushDiagnostics(ctx context.Context, path string, rec *diag.Recorder) error {
	store, err := diag.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Flush(ctx, rec); err != nil {
		return err
	}
	log.Infof("diagnostics session %s written to %s", store.Session(), path)
	return nil
}
