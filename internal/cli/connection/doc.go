// Package connection implements the client side of sod's frame protocol.
//
// A Client drives one AUTH or TERM transaction over a daemon connection:
// it sends the request, answers every NAK prompt through a Prompter
// while echoing the daemon's correlation value, and reports the final
// ACK or REJECT.
package connection
