// Package service implements the authenticator: a concrete class on the
// object runtime whose instances each drive one authentication
// transaction over one peer connection.
//
// A transaction runs as an explicit phase loop:
//
//	establish -> authenticate -> respond
//	establish -> terminate    -> respond
//
// Establish receives the request frame. Authenticate resolves the user,
// relays validator prompts as NAK frames and retries credential
// mismatches under the login policy with a linear backoff. Terminate
// closes a session opened by an earlier successful authentication.
// Respond sends the final ACK or REJECT frame. Transport failures end the
// transaction without a response.
package service
