package main

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/AumSahayata/chunksync/internal/synerr"
)

func init() {
	// don't import go.uber.org/automaxprocs to disable the log output
	_, _ = maxprocs.Set()
}

// globalOptions holds the single binary's flags: one process, one mode
// flag selecting sender or receiver role, matching spec.md's two-programs-
// one-codebase CLI contract.
type globalOptions struct {
	Mode     string
	Host     string
	Port     int
	File     string
	Verbose  int
	HashAlgo string

	ReportOut   string
	MetricsAddr string
}

var global = &globalOptions{}

// AddFlags registers the binary's flags against f, following the same
// AddFlags-on-a-pflag.FlagSet convention the backup tool's own global
// options use.
func (o *globalOptions) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.Mode, "mode", "", "role to run: server (receiver) or client (sender)")
	f.StringVar(&o.Host, "host", "127.0.0.1", "peer address")
	f.IntVar(&o.Port, "port", 12345, "peer port")
	f.StringVar(&o.File, "file", "", "path to the local file")
	f.CountVarP(&o.Verbose, "verbose", "v", "increase log verbosity (repeatable)")
	f.StringVar(&o.HashAlgo, "hash", "blake3", "chunk hash algorithm: blake3, sha256, or sha1")
	f.StringVar(&o.ReportOut, "report", "", "path to write a JSON transfer report (disabled if empty)")
	f.StringVar(&o.MetricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address (disabled if empty)")
}

var cmdRoot = &cobra.Command{
	Use:   "chunksync",
	Short: "Synchronize a file over TCP by transferring only the chunks that changed",
	Long: `
chunksync streams a local file to a remote peer in fixed-size chunks,
skipping any chunk whose content hash already matches the receiver's copy
at the same offset. One binary, one mode flag: --mode client is the
sender, --mode server is the receiver.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	RunE:              run,
}

func init() {
	global.AddFlags(cmdRoot.PersistentFlags())
}

func run(cmd *cobra.Command, _ []string) error {
	level := logrus.WarnLevel
	switch {
	case global.Verbose >= 2:
		level = logrus.DebugLevel
	case global.Verbose == 1:
		level = logrus.InfoLevel
	}
	base := logrus.New()
	base.SetLevel(level)

	if global.File == "" {
		return synerr.Fatalf(synerr.Configuration, "--file is required")
	}

	switch global.Mode {
	case "client":
		return runClient(cmd.Context(), base)
	case "server":
		return runServer(cmd.Context(), base)
	default:
		return synerr.Fatalf(synerr.Configuration, "--mode must be \"client\" or \"server\", got %q", global.Mode)
	}
}

func addr() string {
	return net.JoinHostPort(global.Host, fmt.Sprintf("%d", global.Port))
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		if kind, ok := synerr.KindOf(err); ok {
			fmt.Fprintf(os.Stderr, "chunksync: %s: %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "chunksync: %v\n", err)
		}
		os.Exit(1)
	}
}
