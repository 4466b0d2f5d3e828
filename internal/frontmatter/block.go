package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/starford/frontdate/internal/caldate"
)

var (
	// keyRe matches the key and separator at the start of a key/value line.
	keyRe = regexp.MustCompile(`^([ \t]*)((?:[A-Za-z0-9_-]+|"(?:[^"\\]|\\.)*"|'[^']*')(?:[ \t]*\.[ \t]*(?:[A-Za-z0-9_-]+|"(?:[^"\\]|\\.)*"|'[^']*'))*)([ \t]*=[ \t]*)`)
	// dateLitRe matches a TOML date, local date-time or offset date-time literal.
	dateLitRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:[Tt ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[Zz]|[+-]\d{2}:\d{2})?)?`)
)

// expr is a root-table key/value expression spanning lines[start:end].
type expr struct {
	key        string
	start, end int
}

// Block is a parsed TOML front matter block that supports targeted edits of
// root-table keys. Lines that are not edited are kept byte for byte.
type Block struct {
	values  map[string]any
	lines   []string
	newline string
	exprs   []expr
	rootEnd int
}

// ParseBlock parses TOML front matter text.
func ParseBlock(src string) (*Block, error) {
	var values map[string]any
	if err := toml.Unmarshal([]byte(src), &values); err != nil {
		return nil, fmt.Errorf("frontmatter: parse toml: %w", err)
	}

	b := &Block{
		values:  values,
		lines:   splitLines(src),
		newline: "\n",
	}
	if strings.Contains(src, "\r\n") {
		b.newline = "\r\n"
	}
	if err := b.scan(); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns the decoded value of a root-table key as parsed.
func (b *Block) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// SetDate sets a root-table key to a TOML local date. An existing key keeps
// its position, indentation, spelling and trailing comment when its old
// value was a date literal; otherwise the whole expression is replaced. A
// missing "updated"-style key is placed right after the key named by after,
// if present, else after the last root key.
func (b *Block) SetDate(key string, d caldate.Date, after string) {
	spans := b.find(key)
	if len(spans) == 0 {
		idx := b.insertIndex(after)
		if idx > 0 && !strings.HasSuffix(b.lines[idx-1], "\n") {
			b.lines[idx-1] += b.newline
		}
		b.splice(idx, idx, key+" = "+d.String()+b.newline)
		return
	}

	first := spans[0]
	line := b.replaceLine(b.lines[first.start], key, d)
	// Remove trailing spans first so earlier indexes stay valid.
	for i := len(spans) - 1; i > 0; i-- {
		b.splice(spans[i].start, spans[i].end)
	}
	b.splice(first.start, first.end, line)
}

// Delete removes every expression for a root-table key.
func (b *Block) Delete(key string) {
	spans := b.find(key)
	for i := len(spans) - 1; i >= 0; i-- {
		b.splice(spans[i].start, spans[i].end)
	}
}

// String returns the block text with all edits applied.
func (b *Block) String() string {
	return strings.Join(b.lines, "")
}

// scan records the root-table key/value expressions. Each expression is
// grown line by line until it decodes on its own, which handles multi-line
// strings and arrays without a tokenizer.
func (b *Block) scan() error {
	b.exprs = b.exprs[:0]
	b.rootEnd = len(b.lines)
	for i := 0; i < len(b.lines); {
		trimmed := strings.TrimSpace(b.lines[i])
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			i++
			continue
		case strings.HasPrefix(trimmed, "["):
			b.rootEnd = i
			return nil
		}

		e, err := b.scanExpr(i)
		if err != nil {
			return err
		}
		b.exprs = append(b.exprs, e)
		i = e.end
	}
	return nil
}

func (b *Block) scanExpr(start int) (expr, error) {
	for end := start + 1; end <= len(b.lines); end++ {
		var m map[string]any
		if err := toml.Unmarshal([]byte(strings.Join(b.lines[start:end], "")), &m); err != nil || len(m) != 1 {
			continue
		}
		for k := range m {
			return expr{key: k, start: start, end: end}, nil
		}
	}
	return expr{}, fmt.Errorf("frontmatter: unterminated expression at line %d", start+1)
}

func (b *Block) find(key string) []expr {
	var out []expr
	for _, e := range b.exprs {
		if e.key == key {
			out = append(out, e)
		}
	}
	return out
}

func (b *Block) insertIndex(after string) int {
	if spans := b.find(after); len(spans) > 0 {
		return spans[len(spans)-1].end
	}
	if len(b.exprs) > 0 {
		return b.exprs[len(b.exprs)-1].end
	}
	// No root keys: go before any comments that lead into the first table,
	// but never before the newline that ends the opening delimiter.
	floor := 0
	if len(b.lines) > 0 && strings.TrimSpace(b.lines[0]) == "" {
		floor = 1
	}
	idx := b.rootEnd
	for idx > floor && isBlankOrComment(b.lines[idx-1]) {
		idx--
	}
	if idx < floor {
		idx = floor
	}
	return idx
}

// replaceLine builds the new first line of a key's expression.
func (b *Block) replaceLine(old, key string, d caldate.Date) string {
	body := strings.TrimRight(old, "\r\n")
	m := keyRe.FindStringSubmatchIndex(body)
	if m == nil {
		return key + " = " + d.String() + b.newline
	}
	indent, keyText, sep := body[m[2]:m[3]], body[m[4]:m[5]], body[m[6]:m[7]]
	if unquote(keyText) != key {
		keyText = key
	}
	rest := body[m[1]:]
	suffix := ""
	if lit := dateLitRe.FindString(rest); lit != "" {
		suffix = rest[len(lit):]
	}
	return indent + keyText + sep + d.String() + suffix + b.newline
}

func (b *Block) splice(start, end int, insert ...string) {
	lines := make([]string, 0, len(b.lines)-(end-start)+len(insert))
	lines = append(lines, b.lines[:start]...)
	lines = append(lines, insert...)
	lines = append(lines, b.lines[end:]...)
	b.lines = lines
	// Edits only produce complete single-line expressions, so the rescan
	// cannot fail on text that scanned before.
	_ = b.scan()
}

// TypeName names the TOML type of a decoded value for diagnostics.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "none"
	case string:
		return "string"
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "table"
	case toml.LocalDate, toml.LocalDateTime, time.Time:
		return "datetime"
	case toml.LocalTime:
		return "time"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isBlankOrComment(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || strings.HasPrefix(t, "#")
}

func unquote(k string) string {
	if len(k) >= 2 && (k[0] == '"' || k[0] == '\'') && k[len(k)-1] == k[0] {
		return k[1 : len(k)-1]
	}
	return k
}
