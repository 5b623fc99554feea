package rhfolio

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// jsonObjectWriter builds a JSON object whose fields appear exactly in the
// order they are appended. Report, Table, Balance and Money marshal through
// it so two runs over the same snapshot serialize byte identical.
type jsonObjectWriter struct {
	fields []byte
	err    error
}

// Append marshals value and adds it under key. The first error sticks and
// surfaces from MarshalJSON.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("marshal %q: %w", key, err)
		return w
	}
	if len(w.fields) > 0 {
		w.fields = append(w.fields, ',')
	}
	w.fields = fmt.Appendf(w.fields, "%q:", key)
	w.fields = append(w.fields, raw...)
	return w
}

// Optional appends key only when value is not its type's zero value, keeping
// empty notes and blank currencies out of the output.
func (w *jsonObjectWriter) Optional(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make([]byte, 0, len(w.fields)+2)
	out = append(out, '{')
	out = append(out, w.fields...)
	out = append(out, '}')
	return out, nil
}
