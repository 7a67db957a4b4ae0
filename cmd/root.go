// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

// VERSION is the version of taxicf.
var VERSION = "0.1.0"

var log *logging.Logger
var outStream io.Writer = colorable.NewColorableStdout()

func init() {
	logging.ConsoleLogFormatter.EnableColor = true
	log = logging.MustGetLogger("taxicf")

	handler := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	formatted := logging.NewBackendFormatter(handler, logging.ConsoleLogFormatter)
	logging.SetBackend(formatted)
}

// addLog duplicates log output to a file, returning the open handle so the
// caller can close it when the command finishes.
func addLog(file string, appending bool) *os.File {
	var fh *os.File
	var err error
	if appending {
		fh, err = os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		fh, err = os.Create(file)
	}
	checkError(err)

	handler := logging.NewLogBackend(colorable.NewNonColorable(fh), "", 0)
	formatted := logging.NewBackendFormatter(handler, logging.ConsoleLogFormatter)

	consoleHandler := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	consoleFormatted := logging.NewBackendFormatter(consoleHandler, logging.ConsoleLogFormatter)

	logging.SetBackend(formatted, consoleFormatted)
	return fh
}

// checkError logs a fatal error and exits. It is the single place where an
// unrecoverable error surfaces to the user.
func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// RootCmd is the base command run when taxicf is invoked with no subcommand.
var RootCmd = &cobra.Command{
	Use:   "taxicf",
	Short: "build and query a taxid-partitioned Interleaved Cuckoo Filter",
	Long: fmt.Sprintf(`taxicf v%s
https://github.com/shenwei356/taxicf

taxicf builds a compact membership index over taxid-labelled sequence
collections: it extracts window minimizers from each file, sizes and
partitions an Interleaved Cuckoo Filter into per-taxid bin ranges, and
fills it so later lookups can test "does taxid t contain k-mer h".
`, VERSION),
}

// Execute runs the command tree.
func Execute() {
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := RootCmd.Execute(); err != nil {
		checkError(err)
	}
}

func init() {
	RootCmd.PersistentFlags().IntP("threads", "j", 0,
		formatFlagUsage("Number of worker threads, 0 for all available CPUs."))
	RootCmd.PersistentFlags().BoolP("quiet", "q", false,
		formatFlagUsage("Do not print any verbose information."))
	RootCmd.PersistentFlags().StringP("log", "", "",
		formatFlagUsage("Log file, logs are appended to the end if it already exists, also writing to stderr."))
	RootCmd.PersistentFlags().StringP("config", "", "",
		formatFlagUsage("Optional TOML config file overriding command defaults."))

	RootCmd.SetUsageTemplate(usageTemplate(""))
}

func formatFlagUsage(s string) string {
	return s
}

func usageTemplate(s string) string {
	if s != "" {
		s = " " + s
	}
	return fmt.Sprintf(`Usage:{{if .Runnable}}
  {{.UseLine}}%s{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`, s)
}

// ---------------------------------------------------------------------------
// flag helpers, in the style used throughout the command tree.

func getFlagString(cmd *cobra.Command, flag string) string {
	value, err := cmd.Flags().GetString(flag)
	checkError(err)
	return value
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	value, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return value
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	value, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return value
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	value := getFlagInt(cmd, flag)
	if value <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be positive: %d", flag, value))
	}
	return value
}

func getFlagNonNegativeInt(cmd *cobra.Command, flag string) int {
	value := getFlagInt(cmd, flag)
	if value < 0 {
		checkError(fmt.Errorf("value of flag --%s should be non-negative: %d", flag, value))
	}
	return value
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	value, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return value
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	value, err := cmd.Flags().GetStringSlice(flag)
	checkError(err)
	return value
}

func isStdin(file string) bool {
	return file == "-"
}

func isStdout(file string) bool {
	return file == "-" || strings.TrimSpace(file) == ""
}
