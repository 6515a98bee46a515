// Package credential verifies passwords against the host's shadow
// database.
//
// ShadowValidator implements domain.CredentialValidator. Each
// Authenticate round asks the conversation for one password using the
// configured prompt, then checks it against the account's shadow hash.
// sha512-crypt, sha256-crypt and md5-crypt hashes are verified in
// process; bcrypt hashes through x/crypto. Hash formats neither library
// understands (yescrypt, scrypt) can fall back to su(1) run behind a
// pseudo-terminal.
package credential
