package twitter

// Owner is a Twitter account as returned by verify_credentials.
type Owner struct {
	id  string
	raw map[string]any
}

// NewOwner wraps a verify_credentials payload. id is the user id from the
// access token exchange; when empty the payload id_str is used.
func NewOwner(id string, raw map[string]any) *Owner {
	if id == "" {
		id, _ = raw["id_str"].(string)
	}
	return &Owner{id: id, raw: raw}
}

func (o *Owner) ID() string { return o.id }

func (o *Owner) Name() string { return o.str("name") }

func (o *Owner) ScreenName() string { return o.str("screen_name") }

// Email is only present when the app is allowed to request it and the user
// has a confirmed address.
func (o *Owner) Email() (string, bool) {
	v := o.str("email")
	return v, v != ""
}

func (o *Owner) ToMap() map[string]any { return o.raw }

func (o *Owner) str(key string) string {
	s, _ := o.raw[key].(string)
	return s
}
