package snaptest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// spewConfig produces stable dumps: sorted map keys, no pointer addresses
// and no capacities.
var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// DefaultSerializer passes strings, byte slices and fmt.Stringer values
// through unchanged and dumps everything else with SpewSerializer.
func DefaultSerializer(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return SpewSerializer(value)
}

// SpewSerializer dumps value with go-spew.
func SpewSerializer(value any) (string, error) {
	return strings.TrimSuffix(spewConfig.Sdump(value), "\n"), nil
}

// JSONSerializer renders value as indented JSON without HTML escaping.
func JSONSerializer(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
