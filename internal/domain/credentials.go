package domain

// Credentials is a username/password pair for an Earthdata login realm.
type Credentials struct {
	Username string
	Password string
}

// IsEmpty returns true if no username is set.
func (c Credentials) IsEmpty() bool {
	return c.Username == ""
}

// String returns the username with the password redacted.
func (c Credentials) String() string {
	if c.Password == "" {
		return c.Username
	}
	return c.Username + ":***"
}
