package domain

// Device is a registered device record. CredentialHash holds the bcrypt
// digest of the registration-time credential; the plaintext is never stored.
type Device struct {
	ID             int64  `json:"id" db:"id"`
	DeviceName     string `json:"device_name" db:"device_name"`
	IPAddress      string `json:"ip_address" db:"ip_address"`
	CredentialHash string `json:"-" db:"password"`
}
