package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/kvit-s/kvit-patch/internal/ui"
)

// Version info set by ldflags at build time
var (
	version    = "dev"
	commitHash = "dev"
	commitDate = "unknown"
)

func main() {
	// Parse flags
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file (default kvit-patch.yaml if present)")
	flag.StringVar(&opts.root, "d", "", "workspace root to apply the patch in")
	flag.IntVar(&opts.strip, "p", -1, "strip this many leading path segments from file names")
	flag.BoolVar(&opts.reverse, "R", false, "apply the patch in reverse")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "report and preview without writing any files")
	flag.BoolVar(&opts.noRejects, "no-reject", false, "do not write .rej files for rejected hunks")
	flag.StringVar(&opts.backupSuffix, "b", "", "keep originals with this suffix (e.g. .orig)")
	flag.IntVar(&opts.jobs, "j", 0, "number of targets patched in parallel (0 = config or GOMAXPROCS)")
	flag.StringVar(&opts.logFile, "log", "", "log file path (overrides config)")
	flag.BoolVar(&opts.jsonOutput, "json", false, "print a JSON summary to stdout")
	flag.BoolVar(&opts.interactive, "i", false, "choose hunks interactively before applying")
	flag.BoolVar(&opts.verbose, "v", false, "show previews and rejection hints")
	flag.BoolVar(&opts.quiet, "q", false, "only print errors")
	flag.BoolVar(&opts.stats, "stats", false, "print run statistics")
	showVersion := flag.Bool("version", false, "show version information and exit")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kvit-patch [options] [patchfile|-]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Reads a unified diff from patchfile (or stdin) and applies it to the workspace.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Handle --version
	if *showVersion {
		fmt.Printf("%s-%s-%s\n", version, commitDate, commitHash)
		return
	}

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(exitSetup)
	}
	opts.patchFile = flag.Arg(0)

	writer := ui.NewWriter()
	writer.SetQuiet(opts.quiet)
	writer.SetJSONMode(opts.jsonOutput)

	// The selector owns the terminal, so the patch cannot come from stdin
	if opts.interactive {
		if opts.patchFile == "" || opts.patchFile == "-" || !isatty.IsTerminal(os.Stdout.Fd()) {
			writer.Error("-i needs a patch file argument and a terminal")
			os.Exit(exitSetup)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts, os.Stdin, writer)
	stop()
	os.Exit(code)
}
