package plist

import (
	"sort"
	"strconv"
	"strings"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
`
	xmlFooter = `</dict>
</plist>
`
	indent = "    "
)

// serializeOrder is the canonical key emission order. It is fixed so that
// parse followed by serialize is a byte-level identity on canonical files.
var serializeOrder = []Field{
	FieldLabel,
	FieldProgramArguments,
	FieldStartInterval,
	FieldRunAtLoad,
	FieldKeepAlive,
	FieldStandardOutPath,
	FieldStandardErrorPath,
	FieldWorkingDirectory,
	FieldProgram,
	FieldThrottleInterval,
	FieldAbandonProcessGroup,
	FieldEnablePressuredExit,
	FieldEnableTransactions,
	FieldEventMonitor,
	FieldPOSIXSpawnType,
	FieldAssociatedBundleIdentifiers,
	FieldLimitLoadToSessionType,
	FieldEnvironmentVariables,
}

// Serialize renders the document in the canonical descriptor XML form.
// Unset fields are omitted; unsupported keys captured at parse time are
// re-emitted verbatim after the editable fields.
func (d *Document) Serialize() []byte {
	var blocks []string
	for _, f := range serializeOrder {
		if block := d.serializeField(f); block != "" {
			blocks = append(blocks, block)
		}
	}
	for _, e := range d.unknown {
		var b strings.Builder
		b.WriteString(indent + "<key>" + escape(e.key) + "</key>\n")
		for _, line := range e.lines {
			b.WriteString(line + "\n")
		}
		blocks = append(blocks, b.String())
	}

	var out strings.Builder
	out.WriteString(xmlHeader)
	out.WriteString(strings.Join(blocks, "\n"))
	if len(blocks) > 0 {
		out.WriteString("\n")
	}
	out.WriteString(xmlFooter)
	return []byte(out.String())
}

func (d *Document) serializeField(f Field) string {
	switch f {
	case FieldLabel:
		return stringEntry(f, d.Label)
	case FieldProgram:
		return stringEntry(f, d.Program)
	case FieldStandardOutPath:
		return stringEntry(f, d.StandardOutPath)
	case FieldStandardErrorPath:
		return stringEntry(f, d.StandardErrorPath)
	case FieldWorkingDirectory:
		return stringEntry(f, d.WorkingDirectory)
	case FieldPOSIXSpawnType:
		return stringEntry(f, d.POSIXSpawnType)
	case FieldStartInterval:
		return intEntry(f, d.StartInterval)
	case FieldThrottleInterval:
		return intEntry(f, d.ThrottleInterval)
	case FieldRunAtLoad:
		return boolEntry(f, d.RunAtLoad)
	case FieldKeepAlive:
		return boolEntry(f, d.KeepAlive)
	case FieldAbandonProcessGroup:
		return boolEntry(f, d.AbandonProcessGroup)
	case FieldEnablePressuredExit:
		return boolEntry(f, d.EnablePressuredExit)
	case FieldEnableTransactions:
		return boolEntry(f, d.EnableTransactions)
	case FieldEventMonitor:
		return boolEntry(f, d.EventMonitor)
	case FieldProgramArguments:
		return arrayEntry(f, d.ProgramArguments)
	case FieldAssociatedBundleIdentifiers:
		return arrayEntry(f, d.AssociatedBundleIdentifiers)
	case FieldLimitLoadToSessionType:
		if d.SessionTypes == nil {
			return ""
		}
		if !d.SessionTypes.IsList && len(d.SessionTypes.Values) == 1 {
			return keyLine(f) + indent + "<string>" + escape(d.SessionTypes.Values[0]) + "</string>\n"
		}
		return arrayEntry(f, d.SessionTypes.Values)
	case FieldEnvironmentVariables:
		if len(d.EnvironmentVariables) == 0 {
			return ""
		}
		keys := make([]string, 0, len(d.EnvironmentVariables))
		for k := range d.EnvironmentVariables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(keyLine(f))
		b.WriteString(indent + "<dict>\n")
		for _, k := range keys {
			b.WriteString(indent + indent + "<key>" + escape(k) + "</key>\n")
			b.WriteString(indent + indent + "<string>" + escape(d.EnvironmentVariables[k]) + "</string>\n")
		}
		b.WriteString(indent + "</dict>\n")
		return b.String()
	}
	return ""
}

func keyLine(f Field) string {
	return indent + "<key>" + f.Key() + "</key>\n"
}

func stringEntry(f Field, v *string) string {
	if v == nil {
		return ""
	}
	return keyLine(f) + indent + "<string>" + escape(*v) + "</string>\n"
}

func intEntry(f Field, v *int) string {
	if v == nil {
		return ""
	}
	return keyLine(f) + indent + "<integer>" + strconv.Itoa(*v) + "</integer>\n"
}

func boolEntry(f Field, v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return keyLine(f) + indent + "<true/>\n"
	}
	return keyLine(f) + indent + "<false/>\n"
}

func arrayEntry(f Field, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(keyLine(f))
	b.WriteString(indent + "<array>\n")
	for _, item := range items {
		b.WriteString(indent + indent + "<string>" + escape(item) + "</string>\n")
	}
	b.WriteString(indent + "</array>\n")
	return b.String()
}
