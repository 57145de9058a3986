/*
Package cli provides command-line interface utilities for Galvani.

The cli package includes output formatters and common error types used by
the galvani command.

Output Formatting:

Commands that print structured results support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Error Types:

Command implementations wrap failures in CommandError so that the root
command can report which subcommand failed; configuration problems use
ConfigError with the offending file path.
*/
package cli
