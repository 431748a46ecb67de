package verify

import (
	"strconv"
	"strings"
)

// User is the opaque user record returned by lookup. The flow passes it
// through untouched; the helpers only read the few fields the requests need.
type User map[string]any

func (u User) ID() string {
	return u.text("id", "_id", "userId", "user_id")
}

func (u User) Email() string {
	return u.text("email")
}

// DisplayName picks the friendliest available label.
func (u User) DisplayName() string {
	if n := u.text("name", "fullName", "displayName", "username"); n != "" {
		return n
	}
	if e := u.Email(); e != "" {
		return e
	}
	return u.text("phone", "emailOrPhone")
}

func (u User) text(keys ...string) string {
	for _, k := range keys {
		switch v := u[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// synthesizeUser builds the minimal record used when the backend confirms
// the account exists without returning it.
func synthesizeUser(credential string) User {
	u := User{"emailOrPhone": credential}
	if isEmail(credential) {
		u["email"] = credential
	} else {
		u["phone"] = credential
	}
	return u
}

func isEmail(credential string) bool {
	return strings.Contains(credential, "@")
}
