package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

type AppFlags struct {
	GlobalConfigFile string
	HARFiles         []string
	ListenAddress    string
	Export           bool
	OutputPath       string
	ExportFormat     string
	Clipboard        bool
	Clear            bool
	CDNFilter        string
}

// stringList collects repeated flag values; each value may also be a
// comma-separated list.
type stringList []string

func (sl *stringList) String() string {
	return strings.Join(*sl, ",")
}

func (sl *stringList) Set(value string) error {
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			*sl = append(*sl, trimmed)
		}
	}
	return nil
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string, output io.Writer) (AppFlags, error) {
	fs := flag.NewFlagSet("jscollector", flag.ContinueOnError)
	fs.SetOutput(output)

	globalConfigFile := fs.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := fs.String("c", "", "Alias for -config")

	var harFiles stringList
	fs.Var(&harFiles, "har", "HAR file(s) to replay; repeat the flag or pass a comma-separated list")

	listenAddress := fs.String("listen", "", "Run the passive proxy on this address (host:port) until interrupted")
	listenAddressAlias := fs.String("l", "", "Alias for -listen")

	export := fs.Bool("export", false, "Export the collected URLs when the run finishes")
	outputPath := fs.String("output", "", "Export file path (overrides export_config.output_path)")
	outputPathAlias := fs.String("o", "", "Alias for -output")
	exportFormat := fs.String("format", "", "Export format: txt or parquet (overrides export_config.format)")

	clipboard := fs.Bool("clipboard", false, "Print the collected URLs to stdout, one per line")
	clearList := fs.Bool("clear", false, "Clear the saved URL list before collecting")
	cdnFilter := fs.String("cdn-filter", "", "Turn the CDN filter on or off for this run (on|off)")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}
	if fs.NArg() > 0 {
		return AppFlags{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	flags := AppFlags{
		HARFiles:     harFiles,
		Export:       *export,
		ExportFormat: strings.ToLower(strings.TrimSpace(*exportFormat)),
		Clipboard:    *clipboard,
		Clear:        *clearList,
		CDNFilter:    strings.ToLower(strings.TrimSpace(*cdnFilter)),
	}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *listenAddress != "" {
		flags.ListenAddress = *listenAddress
	} else if *listenAddressAlias != "" {
		flags.ListenAddress = *listenAddressAlias
	}

	if *outputPath != "" {
		flags.OutputPath = *outputPath
	} else if *outputPathAlias != "" {
		flags.OutputPath = *outputPathAlias
	}

	switch flags.CDNFilter {
	case "", "on", "off":
	default:
		return AppFlags{}, fmt.Errorf("-cdn-filter must be 'on' or 'off', got %q", flags.CDNFilter)
	}

	if len(flags.HARFiles) == 0 && flags.ListenAddress == "" && !flags.Export && !flags.Clipboard && !flags.Clear && flags.CDNFilter == "" {
		return AppFlags{}, fmt.Errorf("nothing to do: pass -har, -listen, -export, -clipboard, -clear or -cdn-filter")
	}

	return flags, nil
}
