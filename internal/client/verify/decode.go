package verify

import (
	"strings"

	"github.com/dmitrijs2005/gophprint/internal/payload"
	"google.golang.org/protobuf/types/known/structpb"
)

var existsFlags = []string{"userExists", "exists", "found"}

// envelopeKeys never describe a user on their own.
var envelopeKeys = map[string]bool{"message": true, "error": true, "status": true, "success": true}

// deniedStatuses are the status/success strings that veto a match.
var deniedStatuses = map[string]bool{
	"false": true, "error": true, "fail": true, "failed": true, "failure": true,
	"denied": true, "rejected": true, "mismatch": true, "no_match": true, "unauthorized": true,
}

// decodeLookup maps a lookup response onto Found(user) or NotFound(message).
// Accepted shapes, in order:
//
//	{userExists|exists|found: false, ...}        not found
//	{data: {exists: false}}                      not found
//	{user: {...}}, {userExists: true, user: {...}}
//	{data: {user: {...}}}
//	{data: {exists: true}}                       synthesized from credential
//	{data: {...}}                                data is the user
//	{exists: true}                               synthesized from credential
//
// Anything else is not found.
func decodeLookup(s *structpb.Struct, credential string) LookupResult {
	msg := payload.String(s, "message", "error")
	data, hasData := payload.Object(s, "data")

	if explicitlyFalse(s, existsFlags...) {
		return LookupResult{Message: msg}
	}
	if hasData && explicitlyFalse(data, existsFlags...) {
		return LookupResult{Message: firstNonEmpty(payload.String(data, "message"), msg)}
	}

	if u, ok := payload.Object(s, "user"); ok {
		return found(u)
	}
	if hasData {
		if u, ok := payload.Object(data, "user"); ok {
			return found(u)
		}
		if payload.Bool(data, existsFlags...) {
			return LookupResult{Found: true, User: synthesizeUser(credential)}
		}
		if describesUser(data) {
			return found(data)
		}
	}
	if payload.Bool(s, existsFlags...) {
		return LookupResult{Found: true, User: synthesizeUser(credential)}
	}
	return LookupResult{Message: msg}
}

// describesUser reports whether data carries anything beyond an envelope
// message or status.
func describesUser(data *structpb.Struct) bool {
	for k := range data.GetFields() {
		if !envelopeKeys[k] {
			return true
		}
	}
	return false
}

func found(u *structpb.Struct) LookupResult {
	return LookupResult{Found: true, User: User(payload.Map(u))}
}

// decodeVerify maps a verification response. Success is signalled by
// match:true, usually next to a status or success field. Only an explicit
// negative status/success (false, or a denial string such as "failed")
// overrides match; any other status text is informational.
func decodeVerify(s *structpb.Struct) VerifyResult {
	data, _ := payload.Object(s, "data")

	match := payload.Bool(s, "match") || payload.Bool(data, "match")
	for _, k := range []string{"success", "status"} {
		if negative(s, k) {
			match = false
		}
	}

	r := VerifyResult{
		Match:   match,
		Message: firstNonEmpty(payload.String(s, "message", "error"), payload.String(data, "message")),
	}
	if !match {
		return r
	}

	r.Token = firstNonEmpty(
		payload.String(s, "token", "accessToken", "access_token"),
		payload.String(data, "token", "accessToken", "access_token"),
	)
	r.UserID = firstNonEmpty(
		payload.String(s, "userId", "user_id"),
		payload.String(data, "userId", "user_id"),
	)
	if r.UserID == "" {
		if u, ok := payload.Object(s, "user"); ok {
			r.UserID = User(payload.Map(u)).ID()
		}
	}
	return r
}

func explicitlyFalse(s *structpb.Struct, names ...string) bool {
	v, ok := payload.First(s, names...)
	if !ok {
		return false
	}
	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	return isBool && !b.BoolValue
}

// negative reports an explicit false or denial string under name.
// Numeric statuses are ignored.
func negative(s *structpb.Struct, name string) bool {
	v, ok := payload.First(s, name)
	if !ok {
		return false
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return !k.BoolValue
	case *structpb.Value_StringValue:
		return deniedStatuses[strings.ToLower(strings.TrimSpace(k.StringValue))]
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
