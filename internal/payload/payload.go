// Package payload reads untyped JSON objects returned by the scanner service
// and the verification backend. Objects are decoded into structpb values so
// shape detection can walk them with typed accessors instead of ad hoc type
// switches over map[string]any.
package payload

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Decode parses a JSON object. Empty input decodes to an empty object.
func Decode(b []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if len(strings.TrimSpace(string(b))) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	return s, nil
}

// DecodeValue parses any JSON value, including a top-level array.
func DecodeValue(b []byte) (*structpb.Value, error) {
	v := &structpb.Value{}
	if err := protojson.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("decode JSON value: %w", err)
	}
	return v, nil
}

// First returns the value of the first present, non-null field among names.
func First(s *structpb.Struct, names ...string) (*structpb.Value, bool) {
	if s == nil {
		return nil, false
	}
	for _, n := range names {
		v, ok := s.GetFields()[n]
		if !ok || v == nil {
			continue
		}
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
			continue
		}
		return v, true
	}
	return nil, false
}

// Object returns the first field among names holding a JSON object.
func Object(s *structpb.Struct, names ...string) (*structpb.Struct, bool) {
	for _, n := range names {
		v, ok := First(s, n)
		if !ok {
			continue
		}
		if o := v.GetStructValue(); o != nil {
			return o, true
		}
	}
	return nil, false
}

// Bool reports whether the first present field among names is truthy:
// boolean true, or a string "true" / "success" / "ok" (any case).
func Bool(s *structpb.Struct, names ...string) bool {
	v, ok := First(s, names...)
	if !ok {
		return false
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_StringValue:
		switch strings.ToLower(strings.TrimSpace(k.StringValue)) {
		case "true", "success", "ok":
			return true
		}
	}
	return false
}

// Has reports whether any of names is present and non-null.
func Has(s *structpb.Struct, names ...string) bool {
	_, ok := First(s, names...)
	return ok
}

// String returns the first field among names rendered as text. Numbers are
// formatted without exponent or trailing zeros so numeric ids survive.
func String(s *structpb.Struct, names ...string) string {
	v, ok := First(s, names...)
	if !ok {
		return ""
	}
	return Text(v)
}

// Text renders a scalar value as text; objects and lists yield "".
func Text(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	}
	return ""
}

// Int returns the first numeric field among names. Numeric strings are
// accepted as well.
func Int(s *structpb.Struct, names ...string) (int, bool) {
	v, ok := First(s, names...)
	if !ok {
		return 0, false
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return int(math.Round(k.NumberValue)), true
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(strings.TrimSpace(k.StringValue))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// Bytes converts a JSON list of numbers in 0..255 into raw bytes.
func Bytes(l *structpb.ListValue) ([]byte, error) {
	out := make([]byte, 0, len(l.GetValues()))
	for i, item := range l.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("byte %d is not a number", i)
		}
		f := n.NumberValue
		if f < 0 || f > 255 || f != math.Trunc(f) {
			return nil, fmt.Errorf("byte %d out of range: %v", i, f)
		}
		out = append(out, byte(f))
	}
	return out, nil
}

// TextSafe normalizes a biometric payload to a single text-safe string.
//
// Priority: an existing string is kept as-is; a byte array is base64
// encoded; an object wrapping a byte array under "data" is unwrapped and
// encoded. Anything else yields ok == false.
func TextSafe(v *structpb.Value) (string, bool) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, k.StringValue != ""
	case *structpb.Value_ListValue:
		b, err := Bytes(k.ListValue)
		if err != nil || len(b) == 0 {
			return "", false
		}
		return base64.StdEncoding.EncodeToString(b), true
	case *structpb.Value_StructValue:
		inner, ok := k.StructValue.GetFields()["data"]
		if !ok {
			return "", false
		}
		if l := inner.GetListValue(); l != nil {
			return TextSafe(inner)
		}
	}
	return "", false
}

// Map converts s to plain Go values for pass-through storage.
func Map(s *structpb.Struct) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s.AsMap()
}
