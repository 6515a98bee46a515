// Package domain defines the core domain models for the sign-on daemon.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Identity: account records and the IdentityLookup collaborator
//   - Credential: the CredentialValidator collaborator, its prompts and items
//   - LoginPolicy: retry and backoff bounds read from host capabilities
//   - Errors: the SOD-* error catalog (protocol, credential, resource, transport)
package domain
