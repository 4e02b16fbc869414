package oauth

// ResourceOwner is the authenticated identity as described by the provider's
// profile data. Each provider wraps its raw payload and exposes the
// normalized fields through its own lookups.
type ResourceOwner interface {
	// ID is the provider's stable identifier for the owner.
	ID() string
	Name() string
	// ScreenName is the handle (Twitter screen_name, GitHub login, ...).
	ScreenName() string
	// Email is optional: providers may omit it depending on granted scopes.
	Email() (string, bool)
	// ToMap returns the untouched raw payload.
	ToMap() map[string]any
}

// Profile is a flat snapshot of a ResourceOwner, convenient for rendering.
type Profile struct {
	Provider   string         `json:"provider"`
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	ScreenName string         `json:"screen_name,omitempty"`
	Email      *string        `json:"email"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// ProfileOf copies the normalized fields of owner.
func ProfileOf(provider string, owner ResourceOwner) Profile {
	p := Profile{
		Provider:   provider,
		ID:         owner.ID(),
		Name:       owner.Name(),
		ScreenName: owner.ScreenName(),
		Raw:        owner.ToMap(),
	}
	if email, ok := owner.Email(); ok {
		p.Email = &email
	}
	return p
}
