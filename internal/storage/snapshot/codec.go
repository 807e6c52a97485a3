package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
)

// Codec names accepted by NewCodec.
const (
	CodecJSON    = "json"
	CodecExports = "exports"
)

var ErrMalformed = errors.New("snapshot: malformed baseline")

// Codec converts group content to and from its textual file form.
type Codec interface {
	Name() string
	Encode(c *domain.Content) ([]byte, error)
	Decode(data []byte) (*domain.Content, error)
}

// NewCodec returns the codec registered under name. Keys listed in omitted
// are left out of the encoded output.
func NewCodec(name string, omitted []string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return &JSONCodec{Omitted: omitted}, nil
	case CodecExports:
		return &ExportsCodec{Omitted: omitted}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown codec %q", name)
	}
}

func filterOmitted(c *domain.Content, omitted []string) *domain.Content {
	if len(omitted) == 0 {
		return c
	}
	skip := make(map[string]bool, len(omitted))
	for _, k := range omitted {
		skip[k] = true
	}
	out := domain.NewContent()
	for _, k := range c.Keys() {
		if skip[k] {
			continue
		}
		v, _ := c.Get(k)
		out.Set(k, v)
	}
	return out
}

// JSONCodec writes content as an indented JSON object, one key per line,
// in insertion order.
type JSONCodec struct {
	Omitted []string
}

// Name implements Codec.
func (JSONCodec) Name() string { return CodecJSON }

// Encode implements Codec.
func (j *JSONCodec) Encode(c *domain.Content) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(filterOmitted(c, j.Omitted)); err != nil {
		return nil, fmt.Errorf("snapshot: encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (JSONCodec) Decode(data []byte) (*domain.Content, error) {
	c := domain.NewContent()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}

// ExportsCodec writes one export statement per key:
//
//	exports[`<key>`] = `<content>`
//
// Backslashes and backticks inside keys and content are escaped with a
// backslash.
type ExportsCodec struct {
	Omitted []string
}

const (
	exportsOpen   = "exports["
	exportsAssign = "] = "
)

// Name implements Codec.
func (ExportsCodec) Name() string { return CodecExports }

// Encode implements Codec.
func (e *ExportsCodec) Encode(c *domain.Content) ([]byte, error) {
	filtered := filterOmitted(c, e.Omitted)

	lines := make([]string, 0, filtered.Len())
	for _, k := range filtered.Keys() {
		v, _ := filtered.Get(k)
		lines = append(lines, exportsOpen+quoteTemplate(k)+exportsAssign+quoteTemplate(v))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// Decode implements Codec.
func (ExportsCodec) Decode(data []byte) (*domain.Content, error) {
	s := string(data)
	c := domain.NewContent()

	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i == len(s) {
			return c, nil
		}

		if !strings.HasPrefix(s[i:], exportsOpen) {
			return nil, fmt.Errorf("%w: expected %q at offset %d", ErrMalformed, exportsOpen, i)
		}
		i += len(exportsOpen)

		key, next, err := unquoteTemplate(s, i)
		if err != nil {
			return nil, err
		}
		i = next

		if !strings.HasPrefix(s[i:], exportsAssign) {
			return nil, fmt.Errorf("%w: expected %q at offset %d", ErrMalformed, exportsAssign, i)
		}
		i += len(exportsAssign)

		value, next, err := unquoteTemplate(s, i)
		if err != nil {
			return nil, err
		}
		i = next

		c.Set(key, value)
	}
}

func quoteTemplate(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	return "`" + s + "`"
}

// unquoteTemplate reads a backtick-quoted string starting at s[i] and
// returns it unescaped together with the offset after the closing backtick.
func unquoteTemplate(s string, i int) (string, int, error) {
	if i >= len(s) || s[i] != '`' {
		return "", i, fmt.Errorf("%w: expected '`' at offset %d", ErrMalformed, i)
	}
	i++

	var b strings.Builder
	for i < len(s) {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", i, fmt.Errorf("%w: dangling escape at offset %d", ErrMalformed, i)
			}
			b.WriteByte(s[i+1])
			i += 2
		case '`':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return "", i, fmt.Errorf("%w: unterminated template", ErrMalformed)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}
