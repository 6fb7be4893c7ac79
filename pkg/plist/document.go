package plist

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SessionTypes holds a LimitLoadToSessionType value, which launchd accepts
// as either a single string or a list of strings. The original shape is
// kept so a round trip does not change it.
type SessionTypes struct {
	Values []string
	IsList bool
}

// rawEntry is an unsupported top-level key carried through a load/edit/save
// round trip verbatim.
type rawEntry struct {
	key   string
	lines []string
}

// Document is the typed in-memory form of one descriptor's fields. It is a
// complete, independent copy of the file contents; mutations never touch
// the on-disk file until an explicit save.
type Document struct {
	Label                       *string
	Program                     *string
	ProgramArguments            []string
	StartInterval               *int
	ThrottleInterval            *int
	RunAtLoad                   *bool
	KeepAlive                   *bool
	AbandonProcessGroup         *bool
	StandardOutPath             *string
	StandardErrorPath           *string
	WorkingDirectory            *string
	POSIXSpawnType              *string
	EnablePressuredExit         *bool
	EnableTransactions          *bool
	EventMonitor                *bool
	SessionTypes                *SessionTypes
	AssociatedBundleIdentifiers []string
	EnvironmentVariables        map[string]string

	unknown []rawEntry
}

// Load reads and parses the descriptor at path. On malformed input it
// returns a *ParseError and no document, so callers keep their prior state.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// FieldValue returns the field's value as an editable string. List fields
// join on newlines, environment variables render as KEY=VALUE lines, and
// unset fields render empty.
func (d *Document) FieldValue(f Field) string {
	switch f {
	case FieldLabel:
		return strOrEmpty(d.Label)
	case FieldProgram:
		return strOrEmpty(d.Program)
	case FieldProgramArguments:
		return strings.Join(d.ProgramArguments, "\n")
	case FieldStartInterval:
		return intOrEmpty(d.StartInterval)
	case FieldThrottleInterval:
		return intOrEmpty(d.ThrottleInterval)
	case FieldRunAtLoad:
		return boolString(d.RunAtLoad)
	case FieldKeepAlive:
		return boolString(d.KeepAlive)
	case FieldAbandonProcessGroup:
		return boolString(d.AbandonProcessGroup)
	case FieldStandardOutPath:
		return strOrEmpty(d.StandardOutPath)
	case FieldStandardErrorPath:
		return strOrEmpty(d.StandardErrorPath)
	case FieldWorkingDirectory:
		return strOrEmpty(d.WorkingDirectory)
	case FieldPOSIXSpawnType:
		return strOrEmpty(d.POSIXSpawnType)
	case FieldEnablePressuredExit:
		return boolString(d.EnablePressuredExit)
	case FieldEnableTransactions:
		return boolString(d.EnableTransactions)
	case FieldEventMonitor:
		return boolString(d.EventMonitor)
	case FieldLimitLoadToSessionType:
		if d.SessionTypes == nil {
			return ""
		}
		return strings.Join(d.SessionTypes.Values, "\n")
	case FieldAssociatedBundleIdentifiers:
		return strings.Join(d.AssociatedBundleIdentifiers, "\n")
	case FieldEnvironmentVariables:
		if len(d.EnvironmentVariables) == 0 {
			return ""
		}
		keys := make([]string, 0, len(d.EnvironmentVariables))
		for k := range d.EnvironmentVariables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+d.EnvironmentVariables[k])
		}
		return strings.Join(pairs, "\n")
	}
	return ""
}

// SetField coerces raw into the field's value type and stores it. A failed
// coercion returns a *CoercionError and leaves the document unchanged. An
// empty raw value clears the field.
func (d *Document) SetField(f Field, raw string) error {
	switch f.Kind() {
	case KindString:
		d.setString(f, raw)
	case KindInteger:
		if raw == "" {
			d.setInt(f, nil)
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return &CoercionError{Field: f, Value: raw, Reason: "not an integer"}
		}
		d.setInt(f, &n)
	case KindBool:
		switch raw {
		case "true":
			d.setBool(f, boolPtr(true))
		case "false":
			d.setBool(f, boolPtr(false))
		case "":
			d.setBool(f, nil)
		default:
			return &CoercionError{Field: f, Value: raw, Reason: `must be "true" or "false"`}
		}
	case KindStringList:
		items := splitLines(raw)
		if f == FieldProgramArguments {
			d.ProgramArguments = items
		} else {
			d.AssociatedBundleIdentifiers = items
		}
	case KindStringOrList:
		items := splitLines(raw)
		switch len(items) {
		case 0:
			d.SessionTypes = nil
		case 1:
			d.SessionTypes = &SessionTypes{Values: items, IsList: false}
		default:
			d.SessionTypes = &SessionTypes{Values: items, IsList: true}
		}
	case KindStringMap:
		lines := splitLines(raw)
		if len(lines) == 0 {
			d.EnvironmentVariables = nil
			return nil
		}
		env := make(map[string]string, len(lines))
		for _, line := range lines {
			key, value, ok := strings.Cut(line, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return &CoercionError{Field: f, Value: line, Reason: "expected KEY=VALUE"}
			}
			env[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		d.EnvironmentVariables = env
	default:
		return fmt.Errorf("unknown field %d", f)
	}
	return nil
}

func (d *Document) setString(f Field, raw string) {
	var v *string
	if raw != "" {
		v = &raw
	}
	switch f {
	case FieldLabel:
		d.Label = v
	case FieldProgram:
		d.Program = v
	case FieldStandardOutPath:
		d.StandardOutPath = v
	case FieldStandardErrorPath:
		d.StandardErrorPath = v
	case FieldWorkingDirectory:
		d.WorkingDirectory = v
	case FieldPOSIXSpawnType:
		d.POSIXSpawnType = v
	}
}

func (d *Document) setInt(f Field, v *int) {
	switch f {
	case FieldStartInterval:
		d.StartInterval = v
	case FieldThrottleInterval:
		d.ThrottleInterval = v
	}
}

func (d *Document) setBool(f Field, v *bool) {
	switch f {
	case FieldRunAtLoad:
		d.RunAtLoad = v
	case FieldKeepAlive:
		d.KeepAlive = v
	case FieldAbandonProcessGroup:
		d.AbandonProcessGroup = v
	case FieldEnablePressuredExit:
		d.EnablePressuredExit = v
	case FieldEnableTransactions:
		d.EnableTransactions = v
	case FieldEventMonitor:
		d.EventMonitor = v
	}
}

// UnknownKeys returns the plist keys carried through verbatim because they
// are outside the editable field set.
func (d *Document) UnknownKeys() []string {
	keys := make([]string, 0, len(d.unknown))
	for _, e := range d.unknown {
		keys = append(keys, e.key)
	}
	return keys
}

func splitLines(raw string) []string {
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func boolString(v *bool) string {
	if v != nil && *v {
		return "true"
	}
	return "false"
}

func boolPtr(v bool) *bool { return &v }
