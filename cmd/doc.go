// Package cmd implements the gmailmcp command line interface: the MCP
// server (serve), the OAuth authorization flow (auth) and version
// reporting.
package cmd
