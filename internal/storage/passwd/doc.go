// Package passwd reads the host's account databases.
//
// FileLookup and SystemLookup resolve login names to identities for the
// authenticator. ShadowFile exposes password hashes to the shadow
// credential validator. Files are re-read when their modification time
// changes, so account edits are seen without a restart.
package passwd
