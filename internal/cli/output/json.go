package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

// Format writes data as indented JSON without HTML escaping.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
