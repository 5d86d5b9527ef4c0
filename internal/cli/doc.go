// Package cli turns the command line of the quill binary into an
// app.Config. Invalid input is reported as an ExitError carrying the exit
// code the process should end with.
package cli
