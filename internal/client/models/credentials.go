package models

// Credentials is the persisted credential record. The WebDAV password is
// only ever stored sealed by the vault.
type Credentials struct {
	ServerURL       string `json:"server_url"`
	Username        string `json:"username"`
	EncryptedSecret []byte `json:"encrypted_secret"`
}

// CredentialInput is what the user types in before it is validated and
// sealed.
type CredentialInput struct {
	ServerURL string `validate:"required,url"`
	Username  string `validate:"required"`
	Password  string `validate:"required"`
}
