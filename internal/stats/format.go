package stats

import jsoniter "github.com/json-iterator/go"

// UnknownType is reported by EventType for messages without a string TYPE.
const UnknownType = "UNKNOWN"

// jsonAPI keeps numbers exact and emits object keys in sorted order.
var jsonAPI = jsoniter.Config{
	UseNumber:   true,
	SortMapKeys: true,
	EscapeHTML:  false,
}.Froze()

// Format renders a raw stats message for display.
//
// Valid JSON is re-serialised compactly, or with two-space indentation when
// pretty is set. Anything that does not parse is returned unchanged.
func Format(raw string, pretty bool) string {
	var v any
	if err := jsonAPI.UnmarshalFromString(raw, &v); err != nil {
		return raw
	}

	var (
		out []byte
		err error
	)
	if pretty {
		out, err = jsonAPI.MarshalIndent(v, "", "  ")
	} else {
		out, err = jsonAPI.Marshal(v)
	}
	if err != nil {
		return raw
	}
	return string(out)
}

// EventType returns the top-level "TYPE" of a Quake Live stats message,
// e.g. "PLAYER_KILL" or "MATCH_REPORT", or UnknownType.
func EventType(raw string) string {
	t := jsonAPI.Get([]byte(raw), "TYPE")
	if t.ValueType() != jsoniter.StringValue {
		return UnknownType
	}
	if s := t.ToString(); s != "" {
		return s
	}
	return UnknownType
}
