package standard

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// OwnerFields are gjson paths locating the normalized fields in a profile
// payload.
type OwnerFields struct {
	ID         string
	Name       string
	ScreenName string
	Email      string
}

// DefaultOwnerFields match OIDC userinfo claims.
var DefaultOwnerFields = OwnerFields{
	ID:         "sub",
	Name:       "name",
	ScreenName: "preferred_username",
	Email:      "email",
}

// FieldsFromMap reads the keys id, name, screen_name and email, falling back
// to DefaultOwnerFields for each one missing.
func FieldsFromMap(m map[string]string) OwnerFields {
	f := DefaultOwnerFields
	if v := m["id"]; v != "" {
		f.ID = v
	}
	if v := m["name"]; v != "" {
		f.Name = v
	}
	if v := m["screen_name"]; v != "" {
		f.ScreenName = v
	}
	if v := m["email"]; v != "" {
		f.Email = v
	}
	return f
}

// GenericOwner is a resource owner read from a JSON profile through
// OwnerFields.
type GenericOwner struct {
	body   []byte
	raw    map[string]any
	fields OwnerFields
	email  *string
}

// NewGenericOwner decodes body, which must be a JSON object.
func NewGenericOwner(body []byte, fields OwnerFields) (*GenericOwner, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &GenericOwner{body: body, raw: raw, fields: fields}, nil
}

// WithEmail returns a copy of o reporting email instead of the payload value.
func (o *GenericOwner) WithEmail(email string) *GenericOwner {
	cp := *o
	cp.email = &email
	return &cp
}

func (o *GenericOwner) lookup(path string) string {
	if path == "" {
		return ""
	}
	res := gjson.GetBytes(o.body, path)
	if !res.Exists() || res.Type == gjson.Null {
		return ""
	}
	return res.String()
}

func (o *GenericOwner) ID() string         { return o.lookup(o.fields.ID) }
func (o *GenericOwner) Name() string       { return o.lookup(o.fields.Name) }
func (o *GenericOwner) ScreenName() string { return o.lookup(o.fields.ScreenName) }

func (o *GenericOwner) Email() (string, bool) {
	if o.email != nil {
		return *o.email, *o.email != ""
	}
	v := o.lookup(o.fields.Email)
	return v, v != ""
}

// ToMap returns the decoded payload.
func (o *GenericOwner) ToMap() map[string]any { return o.raw }
