package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rowdoc <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Write one document per row plus a summary table")
	fmt.Fprintln(w, "  preview    Show the input rows as a terminal table")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  doctor     Check the environment (Chrome for pdf output)")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "'rowdoc <file.csv>' is shorthand for 'rowdoc convert <file.csv>'.")
	fmt.Fprintln(w, "Run 'rowdoc help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rowdoc convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write one document per row, named after the id column, and a")
	fmt.Fprintln(w, "summary table of all rows.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .csv, .tsv or .xlsx file (optional if config has input.path)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input:")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -d, --delimiter <c>         CSV delimiter (default: tab for .tsv, comma otherwise)")
	fmt.Fprintln(w, "      --sheet <name>          XLSX sheet (default: first sheet)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --id-column <name>      Column whose value names each document")
	fmt.Fprintln(w, "      --title <s>             Heading of every document")
	fmt.Fprintln(w, "      --column <spec>         name[:string|image[:display name]], repeatable")
	fmt.Fprintln(w, "                              Replaces the configured columns")
	fmt.Fprintln(w, "      --image-width <in>      Row picture width (default 4)")
	fmt.Fprintln(w, "      --image-height <in>     Row picture height (default 3)")
	fmt.Fprintln(w, "      --table-image-width <in>  Summary picture width (default 2)")
	fmt.Fprintln(w, "      --table-image-height <in> Summary picture height (default 2)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>          Output directory (default results)")
	fmt.Fprintln(w, "  -f, --format <s>            docx, html, pdf (default docx)")
	fmt.Fprintln(w, "      --style <s>             CSS style name, file or content (html/pdf)")
	fmt.Fprintln(w, "      --no-summary            Skip the summary document")
	fmt.Fprintln(w, "      --summary-only          Write only the summary document")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>           PDF print timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <s>         debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>        text, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ROWDOC_* variables (and a .env file) override the config file;")
	fmt.Fprintln(w, "  flags override both.")
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rowdoc preview <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the input rows as a table. Image columns from the config are")
	fmt.Fprintln(w, "shown as [image WxH] or [invalid image: reason].")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -d, --delimiter <c>         CSV delimiter")
	fmt.Fprintln(w, "      --sheet <name>          XLSX sheet")
	fmt.Fprintf(w, "  -n, --limit <n>             Maximum rows to show (default %d, 0 = all)\n", defaultPreviewLimit)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rowdoc config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration a convert run would use, after applying")
	fmt.Fprintln(w, "ROWDOC_* environment variables.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
}

// runHelp prints help for a specific command and returns an exit code.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "preview":
		printPreviewUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: rowdoc doctor [-c config] [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check the effective config, input and output paths, Chrome and the temp directory.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: rowdoc version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: rowdoc help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
