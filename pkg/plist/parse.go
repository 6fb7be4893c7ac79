package plist

import (
	"strconv"
	"strings"
)

// Parse builds a Document from descriptor XML. Keys outside the editable
// field set are captured verbatim and re-emitted by Serialize, so a
// load/edit/save round trip never drops them.
func Parse(data []byte) (*Document, error) {
	lines := strings.Split(string(data), "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "<dict>" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, &ParseError{Reason: "no <dict> element"}
	}

	doc := &Document{}
	i := start
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if line == "</dict>" {
			return doc, nil
		}

		key, ok := innerText(line, "key")
		if !ok {
			return nil, &ParseError{Reason: "expected <key> element, got " + line}
		}
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i >= len(lines) {
			return nil, &ParseError{Reason: "missing value for key " + key}
		}

		field, supported := supportedKeys[key]
		if !supported {
			block, next, err := captureBlock(lines, i)
			if err != nil {
				return nil, err
			}
			doc.unknown = append(doc.unknown, rawEntry{key: key, lines: block})
			i = next
			continue
		}

		next, err := parseValue(doc, field, lines, i)
		if err != nil {
			return nil, err
		}
		i = next
	}
	return nil, &ParseError{Reason: "unterminated <dict>"}
}

// parseValue consumes one value starting at lines[i] and stores it in doc.
// It returns the index of the first unconsumed line.
func parseValue(doc *Document, field Field, lines []string, i int) (int, error) {
	line := strings.TrimSpace(lines[i])

	switch field.Kind() {
	case KindString:
		s, ok := innerText(line, "string")
		if !ok {
			return 0, &ParseError{Reason: field.Key() + ": expected <string> value"}
		}
		doc.setString(field, unescape(s))
		return i + 1, nil

	case KindInteger:
		s, ok := innerText(line, "integer")
		if !ok {
			return 0, &ParseError{Reason: field.Key() + ": expected <integer> value"}
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, &ParseError{Reason: field.Key() + ": bad integer " + s}
		}
		doc.setInt(field, &n)
		return i + 1, nil

	case KindBool:
		switch line {
		case "<true/>":
			doc.setBool(field, boolPtr(true))
		case "<false/>":
			doc.setBool(field, boolPtr(false))
		default:
			return 0, &ParseError{Reason: field.Key() + ": expected <true/> or <false/>"}
		}
		return i + 1, nil

	case KindStringList:
		items, next, err := parseStringArray(field, lines, i)
		if err != nil {
			return 0, err
		}
		if field == FieldProgramArguments {
			doc.ProgramArguments = items
		} else {
			doc.AssociatedBundleIdentifiers = items
		}
		return next, nil

	case KindStringOrList:
		if s, ok := innerText(line, "string"); ok {
			doc.SessionTypes = &SessionTypes{Values: []string{unescape(s)}, IsList: false}
			return i + 1, nil
		}
		items, next, err := parseStringArray(field, lines, i)
		if err != nil {
			return 0, err
		}
		doc.SessionTypes = &SessionTypes{Values: items, IsList: true}
		return next, nil

	case KindStringMap:
		return parseEnvDict(doc, lines, i)
	}
	return 0, &ParseError{Reason: "unhandled field " + field.Key()}
}

// parseStringArray consumes an <array> of <string> elements.
func parseStringArray(field Field, lines []string, i int) ([]string, int, error) {
	if strings.TrimSpace(lines[i]) != "<array>" {
		return nil, 0, &ParseError{Reason: field.Key() + ": expected <array> value"}
	}
	items := []string{}
	for i++; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "</array>" {
			return items, i + 1, nil
		}
		if line == "" {
			continue
		}
		s, ok := innerText(line, "string")
		if !ok {
			return nil, 0, &ParseError{Reason: field.Key() + ": expected <string> in array"}
		}
		items = append(items, unescape(s))
	}
	return nil, 0, &ParseError{Reason: field.Key() + ": unterminated <array>"}
}

// parseEnvDict consumes the EnvironmentVariables <dict> of key/string pairs.
func parseEnvDict(doc *Document, lines []string, i int) (int, error) {
	if strings.TrimSpace(lines[i]) != "<dict>" {
		return 0, &ParseError{Reason: "EnvironmentVariables: expected <dict> value"}
	}
	env := map[string]string{}
	var pendingKey string
	haveKey := false
	for i++; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "</dict>":
			doc.EnvironmentVariables = env
			return i + 1, nil
		case line == "":
			continue
		default:
			if k, ok := innerText(line, "key"); ok {
				pendingKey = unescape(k)
				haveKey = true
				continue
			}
			if v, ok := innerText(line, "string"); ok && haveKey {
				env[pendingKey] = unescape(v)
				haveKey = false
				continue
			}
			return 0, &ParseError{Reason: "EnvironmentVariables: unexpected " + line}
		}
	}
	return 0, &ParseError{Reason: "EnvironmentVariables: unterminated <dict>"}
}

// captureBlock copies the raw lines of one value verbatim: a single-line
// element, or a balanced <array>/<dict> block.
func captureBlock(lines []string, i int) ([]string, int, error) {
	first := strings.TrimSpace(lines[i])
	if first != "<array>" && first != "<dict>" {
		return []string{lines[i]}, i + 1, nil
	}
	depth := 0
	var block []string
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		block = append(block, lines[i])
		switch line {
		case "<array>", "<dict>":
			depth++
		case "</array>", "</dict>":
			depth--
			if depth == 0 {
				return block, i + 1, nil
			}
		}
	}
	return nil, 0, &ParseError{Reason: "unterminated " + first}
}

// innerText extracts the content of a single-line <tag>...</tag> element.
func innerText(line, tag string) (string, bool) {
	open, close := "<"+tag+">", "</"+tag+">"
	if strings.HasPrefix(line, open) && strings.HasSuffix(line, close) {
		return line[len(open) : len(line)-len(close)], true
	}
	return "", false
}

var (
	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }
