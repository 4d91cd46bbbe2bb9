package common

// MasterKeySize is the length of the process-wide AES-256 master key.
const MasterKeySize = 32

// ExportTokenHeaderName is the HTTP header carrying the key export bearer token.
const ExportTokenHeaderName = "Authorization"

// VaultPasswordHeaderName carries the transient password for password-sealed
// entries. It is read per request and never stored.
const VaultPasswordHeaderName = "X-Vault-Password"
