/*
Package cli provides command-line helpers for the verdict command.

Output Formatting:

Commands print results as text, JSON or CSV. Results that implement Table
render as aligned columns in text mode and as rows in CSV mode:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), results)

Errors:

ConfigError and CommandError wrap failures with the configuration field or
command that caused them. ExitCode maps an error to the process exit status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
