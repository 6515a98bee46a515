// Package command defines the sod-cli commands.
//
//	sod-cli login USER      authenticate USER through the daemon
//	sod-cli logout USER     close the daemon's session for USER
//	sod-cli version         print build information
//
// Prompts are answered from the terminal with echo disabled, or line by
// line from standard input when it is not a terminal.
package command
