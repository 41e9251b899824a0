package record

// FlattenAttributes normalizes a business attributes mapping (depth at
// most 2) into a flat string-to-string mapping. Values arrive as
// Python-literal strings ("True", "{'garage': False}"); each is decoded
// with ParseLiteral, nested dict entries are promoted to outer_inner
// keys, and every value is re-stringified. A nil input stays nil.
//
//	{"a": "1", "b": "{'x': 'y'}"}  ->  {"a": "1", "b_x": "y"}
//
// A value that does not parse as a literal is kept verbatim rather
// than aborting the record's file.
func FlattenAttributes(attrs map[string]any) map[string]string {
	if attrs == nil {
		return nil
	}
	flat := make(map[string]string, len(attrs))
	for key, raw := range attrs {
		val := raw
		if s, ok := raw.(string); ok {
			if parsed, err := ParseLiteral(s); err == nil {
				val = parsed
			} else {
				val = s
			}
		}
		if nested, ok := val.(map[string]any); ok {
			for subKey, subVal := range nested {
				flat[key+"_"+subKey] = FormatLiteral(subVal)
			}
			continue
		}
		flat[key] = FormatLiteral(val)
	}
	return flat
}
