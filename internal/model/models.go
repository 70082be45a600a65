package model

// CredentialRecord is one stored credential entry.
// Timestamps are kept as the strings written to the store; see pm.FormatTimestamp.
type CredentialRecord struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
	Website   string `json:"website,omitempty" yaml:"website,omitempty"` // "" when absent
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`     // "" when absent
	CreatedAt string `json:"created_at" yaml:"created_at"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// RecordFields holds the mutable fields of a record. It is the payload of
// create and update requests.
type RecordFields struct {
	Title    string
	Username string
	Password string
	Website  string
	Email    string
}

// Fields returns the mutable fields of r.
func (r CredentialRecord) Fields() RecordFields {
	return RecordFields{
		Title:    r.Title,
		Username: r.Username,
		Password: r.Password,
		Website:  r.Website,
		Email:    r.Email,
	}
}

// DisplayRecord is a record prepared for presentation. PasswordVisible is
// derived from a separate visibility mapping and is never persisted.
type DisplayRecord struct {
	CredentialRecord
	PasswordVisible bool
}
