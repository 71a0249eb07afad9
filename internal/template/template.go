// Package template implements literal placeholder substitution for email
// templates: {name} is replaced by the value of "name", {{ and }} render
// as literal braces.
package template

import (
	"fmt"
	"strings"
)

// Render substitutes {name} placeholders in the template with values
// from variables. Escaped braces ({{ and }}) produce literal braces.
// Unknown and unterminated placeholders are errors, so typos never send
// a half-rendered email.
func Render(template string, variables map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}

			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}

			name := template[i+1 : i+1+end]
			if name == "" {
				return "", fmt.Errorf("empty placeholder at offset %d", i)
			}

			value, ok := variables[name]
			if !ok {
				return "", fmt.Errorf("unknown placeholder %q", name)
			}

			b.WriteString(value)
			i += end + 2

		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("unmatched '}' at offset %d", i)

		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String(), nil
}
