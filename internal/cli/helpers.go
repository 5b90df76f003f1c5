package cli

import (
	"encoding/json"
	"io"
)

// jsonEncode writes an indented JSON response.
func jsonEncode(w io.Writer, response CLIResponse) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
