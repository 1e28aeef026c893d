// pkg/converter/literal.go
package converter

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrMalformedLiteral is returned for any text that is not a plain literal
var ErrMalformedLiteral = errors.New("malformed literal")

// maxLiteralDepth bounds container nesting
const maxLiteralDepth = 200

// Literal value types. None is represented by a nil interface, booleans by
// bool, integers by *big.Int, floats by float64 and text by string.
type (
	// Bytes is a b'...' literal
	Bytes []byte
	// List is a [...] literal
	List []any
	// Tuple is a (...) literal
	Tuple []any
	// Set is a {...} literal without keys, or set()
	Set []any
)

// Dict is a {...} literal. Entries keep source order; later keys shadow earlier ones.
type Dict struct {
	Keys   []any
	Values []any
}

// Len returns the number of entries, duplicates included
func (d *Dict) Len() int {
	return len(d.Keys)
}

// Get returns the value stored under a string key
func (d *Dict) Get(key string) (any, bool) {
	for i := len(d.Keys) - 1; i >= 0; i-- {
		if k, ok := d.Keys[i].(string); ok && k == key {
			return d.Values[i], true
		}
	}
	return nil, false
}

// ParseLiteral parses text holding a single literal: strings, bytes, numbers,
// None, True, False, and lists, tuples, sets and dicts of those. Anything else
// (names, calls, operators, f-strings, complex numbers) is rejected.
func ParseLiteral(text string) (any, error) {
	p := &literalParser{src: strings.TrimLeft(text, " \t")}
	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after literal", p.peek())
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrMalformedLiteral, p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *literalParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.src) {
		return 0
	}
	return p.src[p.pos+offset]
}

// skipSpace skips whitespace, line continuations and comments
func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			p.pos++
		case c == '\\' && p.peekAt(1) == '\n':
			p.pos += 2
		case c == '\\' && p.peekAt(1) == '\r' && p.peekAt(2) == '\n':
			p.pos += 3
		case c == '#':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *literalParser) parseValue(depth int) (any, error) {
	if depth > maxLiteralDepth {
		return nil, p.errorf("nesting too deep")
	}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}

	c := p.peek()
	switch {
	case c == '{':
		return p.parseBrace(depth)
	case c == '[':
		return p.parseList(depth)
	case c == '(':
		return p.parseParen(depth)
	case c == '+' || c == '-':
		return p.parseSigned()
	case isDigit(c) || (c == '.' && isDigit(p.peekAt(1))):
		return p.parseNumber()
	case c == '\'' || c == '"':
		return p.parseStrings()
	case isIdentStart(c):
		return p.parseName(depth)
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *literalParser) parseName(depth int) (any, error) {
	start := p.pos
	for !p.eof() && isIdentPart(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]

	if c := p.peek(); (c == '\'' || c == '"') && isStringPrefix(name) {
		p.pos = start
		return p.parseStrings()
	}

	switch name {
	case "None":
		return nil, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "set":
		// set() is the only call accepted, yielding an empty set
		p.skipSpace()
		if p.peek() == '(' {
			p.pos++
			p.skipSpace()
			if p.peek() == ')' {
				p.pos++
				return Set{}, nil
			}
		}
	}
	p.pos = start
	return nil, p.errorf("name %q is not a literal", name)
}

func (p *literalParser) parseSigned() (any, error) {
	negative := p.peek() == '-'
	p.pos++
	p.skipSpace()
	if !(isDigit(p.peek()) || (p.peek() == '.' && isDigit(p.peekAt(1)))) {
		return nil, p.errorf("sign must precede a number")
	}
	v, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if !negative {
		return v, nil
	}
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Neg(n), nil
	case float64:
		return -n, nil
	}
	return v, nil
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos

	if p.peek() == '0' {
		base := 0
		switch p.peekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			p.pos += 2
			if p.peek() == '_' {
				p.pos++
			}
			digits, err := p.scanDigits(func(c byte) bool { return digitValue(c) < base })
			if err != nil {
				return nil, err
			}
			if digits == "" {
				return nil, p.errorf("invalid integer literal")
			}
			if isIdentPart(p.peek()) {
				return nil, p.errorf("invalid digit %q", p.peek())
			}
			n, ok := new(big.Int).SetString(digits, base)
			if !ok {
				return nil, p.errorf("invalid integer literal")
			}
			return n, nil
		}
	}

	isFloat := false
	intPart, err := p.scanDigits(isDigit)
	if err != nil {
		return nil, err
	}
	text := intPart
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		frac, err := p.scanDigits(isDigit)
		if err != nil {
			return nil, err
		}
		text += "." + frac
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		isFloat = true
		p.pos++
		text += "e"
		if c := p.peek(); c == '+' || c == '-' {
			text += string(c)
			p.pos++
		}
		exp, err := p.scanDigits(isDigit)
		if err != nil {
			return nil, err
		}
		if exp == "" {
			return nil, p.errorf("invalid exponent")
		}
		text += exp
	}
	if c := p.peek(); c == 'j' || c == 'J' {
		return nil, p.errorf("complex literals are not supported")
	}
	if isIdentPart(p.peek()) {
		return nil, p.errorf("invalid numeric literal %q", p.src[start:p.pos+1])
	}

	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf("invalid float %q", text)
		}
		return f, nil
	}

	if len(intPart) > 1 && intPart[0] == '0' && strings.Trim(intPart, "0") != "" {
		return nil, p.errorf("leading zeros in decimal integer literals are not permitted")
	}
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, p.errorf("invalid integer %q", intPart)
	}
	return n, nil
}

// scanDigits reads digits separated by single underscores and returns them without underscores
func (p *literalParser) scanDigits(valid func(byte) bool) (string, error) {
	var sb strings.Builder
	for !p.eof() {
		c := p.peek()
		if valid(c) {
			sb.WriteByte(c)
			p.pos++
			continue
		}
		if c == '_' && sb.Len() > 0 && valid(p.peekAt(1)) {
			p.pos++
			continue
		}
		if c == '_' {
			return "", p.errorf("invalid underscore in numeric literal")
		}
		break
	}
	return sb.String(), nil
}

// parseStrings parses one or more adjacent string literals and concatenates them
func (p *literalParser) parseStrings() (any, error) {
	var text strings.Builder
	var raw []byte
	isBytes := false
	first := true

	for {
		prefix := ""
		for !p.eof() && isIdentPart(p.peek()) {
			prefix += string(p.peek())
			p.pos++
		}
		lower := strings.ToLower(prefix)
		if !isStringPrefix(prefix) {
			return nil, p.errorf("unsupported string prefix %q", prefix)
		}
		bytesLit := strings.Contains(lower, "b")
		if !first && bytesLit != isBytes {
			return nil, p.errorf("cannot mix bytes and nonbytes literals")
		}
		isBytes = bytesLit
		first = false

		s, err := p.parseStringBody(strings.Contains(lower, "r"), bytesLit)
		if err != nil {
			return nil, err
		}
		if isBytes {
			raw = append(raw, s...)
		} else {
			text.WriteString(s)
		}

		save := p.pos
		p.skipSpace()
		if !p.startsString() {
			p.pos = save
			break
		}
	}

	if isBytes {
		return Bytes(raw), nil
	}
	return text.String(), nil
}

// startsString reports whether a string literal (optionally prefixed) begins at the cursor
func (p *literalParser) startsString() bool {
	i := p.pos
	for i < len(p.src) && isIdentPart(p.src[i]) && i-p.pos < 2 {
		i++
	}
	if i >= len(p.src) || (p.src[i] != '\'' && p.src[i] != '"') {
		return false
	}
	return isStringPrefix(p.src[p.pos:i])
}

func (p *literalParser) parseStringBody(rawMode, bytesMode bool) (string, error) {
	quote := p.peek()
	triple := p.peekAt(1) == quote && p.peekAt(2) == quote
	if triple {
		p.pos += 3
	} else {
		p.pos++
	}

	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string literal")
		}
		c := p.peek()

		if c == quote {
			if !triple {
				p.pos++
				return sb.String(), nil
			}
			if p.peekAt(1) == quote && p.peekAt(2) == quote {
				p.pos += 3
				return sb.String(), nil
			}
		}
		if c == '\n' && !triple {
			return "", p.errorf("unterminated string literal")
		}
		if bytesMode && c >= utf8.RuneSelf {
			return "", p.errorf("bytes can only contain ASCII literal characters")
		}

		if c != '\\' {
			sb.WriteByte(c)
			p.pos++
			continue
		}

		// backslash
		next := p.peekAt(1)
		if next == 0 && p.pos+1 >= len(p.src) {
			return "", p.errorf("unterminated string literal")
		}
		if rawMode {
			sb.WriteByte('\\')
			sb.WriteByte(next)
			p.pos += 2
			continue
		}
		if err := p.parseEscape(&sb, bytesMode); err != nil {
			return "", err
		}
	}
}

func (p *literalParser) parseEscape(sb *strings.Builder, bytesMode bool) error {
	next := p.peekAt(1)
	p.pos += 2
	switch next {
	case '\n':
	case '\r':
		if p.peek() == '\n' {
			p.pos++
		}
	case '\\', '\'', '"':
		sb.WriteByte(next)
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(next - '0')
		for i := 0; i < 2 && p.peek() >= '0' && p.peek() <= '7'; i++ {
			v = v*8 + int(p.peek()-'0')
			p.pos++
		}
		writeCode(sb, v, bytesMode)
	case 'x':
		v, err := p.readHex(2)
		if err != nil {
			return err
		}
		writeCode(sb, v, bytesMode)
	case 'u', 'U':
		if bytesMode {
			sb.WriteByte('\\')
			sb.WriteByte(next)
			return nil
		}
		width := 4
		if next == 'U' {
			width = 8
		}
		v, err := p.readHex(width)
		if err != nil {
			return err
		}
		if v > utf8.MaxRune {
			return p.errorf("illegal Unicode character")
		}
		sb.WriteRune(rune(v))
	case 'N':
		if bytesMode {
			sb.WriteString("\\N")
			return nil
		}
		return p.errorf("named unicode escapes are not supported")
	default:
		sb.WriteByte('\\')
		p.pos--
	}
	return nil
}

func (p *literalParser) readHex(width int) (int, error) {
	if p.pos+width > len(p.src) {
		return 0, p.errorf("truncated escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid escape %q", p.src[p.pos:p.pos+width])
	}
	p.pos += width
	return int(v), nil
}

func writeCode(sb *strings.Builder, v int, bytesMode bool) {
	if bytesMode {
		sb.WriteByte(byte(v))
		return
	}
	sb.WriteRune(rune(v))
}

func (p *literalParser) parseList(depth int) (any, error) {
	p.pos++
	items, err := p.parseItems(']', depth)
	if err != nil {
		return nil, err
	}
	return List(items), nil
}

func (p *literalParser) parseParen(depth int) (any, error) {
	p.pos++
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return Tuple{}, nil
	}
	first, err := p.parseValue(depth + 1)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	switch p.peek() {
	case ')':
		p.pos++
		return first, nil
	case ',':
		p.pos++
		rest, err := p.parseItems(')', depth)
		if err != nil {
			return nil, err
		}
		return append(Tuple{first}, rest...), nil
	default:
		return nil, p.errorf("expected ',' or ')'")
	}
}

// parseItems parses comma separated values up to the closing bracket
func (p *literalParser) parseItems(closing byte, depth int) ([]any, error) {
	items := []any{}
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return items, nil
		}
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return items, nil
		default:
			if p.eof() {
				return nil, p.errorf("unexpected end of input")
			}
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}
}

func (p *literalParser) parseBrace(depth int) (any, error) {
	p.pos++
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return &Dict{}, nil
	}
	first, err := p.parseValue(depth + 1)
	if err != nil {
		return nil, err
	}
	if !hashable(first) {
		return nil, p.errorf("unhashable type %s", TypeName(first))
	}
	p.skipSpace()
	if p.peek() != ':' {
		p.skipSpace()
		var rest []any
		switch p.peek() {
		case '}':
			p.pos++
		case ',':
			p.pos++
			rest, err = p.parseItems('}', depth)
			if err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
		set := append(Set{first}, rest...)
		for _, v := range set {
			if !hashable(v) {
				return nil, p.errorf("unhashable type %s", TypeName(v))
			}
		}
		return set, nil
	}

	d := &Dict{}
	key := first
	for {
		p.pos++ // ':'
		value, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		d.Keys = append(d.Keys, key)
		d.Values = append(d.Values, value)

		p.skipSpace()
		switch p.peek() {
		case '}':
			p.pos++
			return d, nil
		case ',':
			p.pos++
		default:
			if p.eof() {
				return nil, p.errorf("unexpected end of input")
			}
			return nil, p.errorf("expected ',' or '}'")
		}

		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return d, nil
		}
		key, err = p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		if !hashable(key) {
			return nil, p.errorf("unhashable type %s", TypeName(key))
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
	}
}

func hashable(v any) bool {
	switch t := v.(type) {
	case List, Set, *Dict:
		return false
	case Tuple:
		for _, item := range t {
			if !hashable(item) {
				return false
			}
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isStringPrefix(prefix string) bool {
	switch strings.ToLower(prefix) {
	case "", "r", "u", "b", "br", "rb":
		return true
	}
	return false
}
