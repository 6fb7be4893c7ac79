// Package plist provides a typed in-memory model of a launchd property
// list, with parsing, canonical serialization, and per-field editing.
package plist

// Field identifies one editable descriptor field.
type Field int

const (
	FieldLabel Field = iota
	FieldProgram
	FieldProgramArguments
	FieldStartInterval
	FieldThrottleInterval
	FieldRunAtLoad
	FieldKeepAlive
	FieldAbandonProcessGroup
	FieldStandardOutPath
	FieldStandardErrorPath
	FieldWorkingDirectory
	FieldPOSIXSpawnType
	FieldEnablePressuredExit
	FieldEnableTransactions
	FieldEventMonitor
	FieldLimitLoadToSessionType
	FieldAssociatedBundleIdentifiers
	FieldEnvironmentVariables
)

// Kind describes the value shape a field accepts.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindBool
	KindStringList
	KindStringOrList
	KindStringMap
)

// fieldDef ties a field to its plist key, display name, and kind.
type fieldDef struct {
	key  string
	name string
	kind Kind
}

var fieldDefs = map[Field]fieldDef{
	FieldLabel:                       {"Label", "Label", KindString},
	FieldProgram:                     {"Program", "Program", KindString},
	FieldProgramArguments:            {"ProgramArguments", "Program Arguments", KindStringList},
	FieldStartInterval:               {"StartInterval", "Start Interval", KindInteger},
	FieldThrottleInterval:            {"ThrottleInterval", "Throttle Interval", KindInteger},
	FieldRunAtLoad:                   {"RunAtLoad", "Run At Load", KindBool},
	FieldKeepAlive:                   {"KeepAlive", "Keep Alive", KindBool},
	FieldAbandonProcessGroup:         {"AbandonProcessGroup", "Abandon Process Group", KindBool},
	FieldStandardOutPath:             {"StandardOutPath", "Stdout Path", KindString},
	FieldStandardErrorPath:           {"StandardErrorPath", "Stderr Path", KindString},
	FieldWorkingDirectory:            {"WorkingDirectory", "Working Directory", KindString},
	FieldPOSIXSpawnType:              {"POSIXSpawnType", "POSIX Spawn Type", KindString},
	FieldEnablePressuredExit:         {"EnablePressuredExit", "Enable Pressured Exit", KindBool},
	FieldEnableTransactions:          {"EnableTransactions", "Enable Transactions", KindBool},
	FieldEventMonitor:                {"EventMonitor", "Event Monitor", KindBool},
	FieldLimitLoadToSessionType:      {"LimitLoadToSessionType", "Limit Load To Session Type", KindStringOrList},
	FieldAssociatedBundleIdentifiers: {"AssociatedBundleIdentifiers", "Associated Bundle Identifiers", KindStringList},
	FieldEnvironmentVariables:        {"EnvironmentVariables", "Environment Variables", KindStringMap},
}

// Key returns the plist dictionary key for the field.
func (f Field) Key() string { return fieldDefs[f].key }

// Name returns the human-readable field name.
func (f Field) Name() string { return fieldDefs[f].name }

// Kind returns the value shape the field accepts.
func (f Field) Kind() Kind { return fieldDefs[f].kind }

// formOrder is the field traversal order in the editor form.
var formOrder = []Field{
	FieldLabel,
	FieldProgram,
	FieldProgramArguments,
	FieldStartInterval,
	FieldThrottleInterval,
	FieldRunAtLoad,
	FieldKeepAlive,
	FieldAbandonProcessGroup,
	FieldStandardOutPath,
	FieldStandardErrorPath,
	FieldWorkingDirectory,
	FieldPOSIXSpawnType,
	FieldEnablePressuredExit,
	FieldEnableTransactions,
	FieldEventMonitor,
	FieldLimitLoadToSessionType,
	FieldAssociatedBundleIdentifiers,
	FieldEnvironmentVariables,
}

// Fields returns all editable fields in form order.
func Fields() []Field {
	out := make([]Field, len(formOrder))
	copy(out, formOrder)
	return out
}

// Next returns the field after f in form order, wrapping around.
func (f Field) Next() Field {
	for i, cur := range formOrder {
		if cur == f {
			return formOrder[(i+1)%len(formOrder)]
		}
	}
	return formOrder[0]
}

// Prev returns the field before f in form order, wrapping around.
func (f Field) Prev() Field {
	for i, cur := range formOrder {
		if cur == f {
			return formOrder[(i+len(formOrder)-1)%len(formOrder)]
		}
	}
	return formOrder[0]
}

// supportedKeys maps plist keys back to fields for the parser.
var supportedKeys = func() map[string]Field {
	m := make(map[string]Field, len(fieldDefs))
	for f, def := range fieldDefs {
		m[def.key] = f
	}
	return m
}()
