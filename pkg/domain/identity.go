package domain

// TrustedAttributes are claims asserted by the identity provider, carried on
// the verified token rather than looked up per organization.
type TrustedAttributes struct {
	// Master grants unrestricted access across every organization and
	// location. Provider operators only.
	Master bool `json:"master,omitempty"`
	// Extra holds provider claims this service does not interpret. They pass
	// through to audit records untouched.
	Extra map[string]string `json:"extra,omitempty"`
}

// Identity is an authenticated caller as asserted by the identity provider.
type Identity struct {
	ID      IdentityID        `json:"id"`
	Email   string            `json:"email"`
	Trusted TrustedAttributes `json:"trusted"`
}

// IsMaster reports whether the identity carries the provider master flag.
func (i Identity) IsMaster() bool { return i.Trusted.Master }
