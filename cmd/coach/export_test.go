package main

import "github.com/spf13/cobra"

// Internals exposed for the external test package.
var (
	NewRootCmd         = newRootCmd
	ParseKind          = parseKind
	WriteSessionTable  = writeSessionTable
	WriteATS           = writeATS
	TranscriptMarkdown = transcriptMarkdown
)

// NewRootCmdWithCloser returns a root command whose app also releases c.
func NewRootCmdWithCloser(c func() error) *cobra.Command {
	return newRoot(&app{closers: []func() error{c}})
}
