package sharing

import (
	"strings"
)

const (
	CapabilitiesHeader = "delta-sharing-capabilities"

	ResponseFormatParquet = "parquet"
	ResponseFormatDelta   = "delta"
)

// Capabilities is the parsed delta-sharing-capabilities request header.
type Capabilities struct {
	ResponseFormats []string
	ReaderFeatures  []string
}

// ParseCapabilities parses a header of the form
// "responseformat=parquet,delta;readerfeatures=deletionvectors". Keys are case
// insensitive and unknown keys are ignored. Only the parquet response format is
// served; a client that accepts nothing else is rejected.
func ParseCapabilities(header string) (Capabilities, error) {
	var c Capabilities
	for _, part := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		values := splitList(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "responseformat":
			c.ResponseFormats = values
		case "readerfeatures":
			c.ReaderFeatures = values
		}
	}
	if len(c.ResponseFormats) == 0 {
		c.ResponseFormats = []string{ResponseFormatParquet}
		return c, nil
	}
	for _, f := range c.ResponseFormats {
		if f == ResponseFormatParquet {
			return c, nil
		}
	}
	return c, ErrUnsupportedFormat.Msg("response format '" + strings.Join(c.ResponseFormats, ",") + "' is not supported; use parquet")
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
