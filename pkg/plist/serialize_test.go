package plist

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func sampleDocument() *Document {
	label := "com.user.backup"
	program := "/usr/local/bin/backup"
	interval := 600
	throttle := 30
	runAtLoad := true
	keepAlive := false
	out := "/tmp/backup.log"
	return &Document{
		Label:            &label,
		Program:          &program,
		ProgramArguments: []string{"/usr/local/bin/backup", "--verbose"},
		StartInterval:    &interval,
		ThrottleInterval: &throttle,
		RunAtLoad:        &runAtLoad,
		KeepAlive:        &keepAlive,
		StandardOutPath:  &out,
		SessionTypes:     &SessionTypes{Values: []string{"Aqua"}, IsList: false},
		EnvironmentVariables: map[string]string{
			"PATH": "/usr/local/bin:/usr/bin",
			"LANG": "en_US.UTF-8",
		},
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	// serialize -> parse must reproduce the document, and a second
	// serialize must be byte-identical to the first.
	doc := sampleDocument()

	first := doc.Serialize()
	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse(Serialize()) error = %v", err)
	}
	if !reflect.DeepEqual(parsed, doc) {
		t.Errorf("round trip changed document:\n got %+v\nwant %+v", parsed, doc)
	}

	second := parsed.Serialize()
	if !bytes.Equal(first, second) {
		t.Errorf("serialize is not a fixed point:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestSerializeSessionTypeShape(t *testing.T) {
	single := &Document{SessionTypes: &SessionTypes{Values: []string{"Aqua"}, IsList: false}}
	out := string(single.Serialize())
	if !strings.Contains(out, "<key>LimitLoadToSessionType</key>\n    <string>Aqua</string>") {
		t.Errorf("single session type should serialize as <string>, got:\n%s", out)
	}

	multi := &Document{SessionTypes: &SessionTypes{Values: []string{"Aqua", "Background"}, IsList: true}}
	out = string(multi.Serialize())
	if !strings.Contains(out, "<array>") {
		t.Errorf("list session type should serialize as <array>, got:\n%s", out)
	}
}

func TestSerializeOmitsUnsetFields(t *testing.T) {
	label := "com.user.min"
	doc := &Document{Label: &label}
	out := string(doc.Serialize())

	if !strings.Contains(out, "<key>Label</key>") {
		t.Error("Label missing from output")
	}
	for _, key := range []string{"StartInterval", "RunAtLoad", "EnvironmentVariables", "ProgramArguments"} {
		if strings.Contains(out, "<key>"+key+"</key>") {
			t.Errorf("unset field %s should be omitted", key)
		}
	}
}

func TestSerializeEscapesSpecialCharacters(t *testing.T) {
	label := "a&b <c>"
	doc := &Document{Label: &label}

	out := string(doc.Serialize())
	if !strings.Contains(out, "<string>a&amp;b &lt;c&gt;</string>") {
		t.Errorf("special characters not escaped:\n%s", out)
	}

	parsed, err := Parse(doc.Serialize())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Label == nil || *parsed.Label != label {
		t.Errorf("Label after round trip = %v, want %q", parsed.Label, label)
	}
}

func TestSerializeUnknownPassthroughIsStable(t *testing.T) {
	xml := `<dict>
    <key>Label</key>
    <string>com.user.test</string>
    <key>SockPathName</key>
    <string>/var/run/test.sock</string>
</dict>`

	doc, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first := doc.Serialize()

	again, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse(Serialize()) error = %v", err)
	}
	second := again.Serialize()
	if !bytes.Equal(first, second) {
		t.Errorf("passthrough round trip not stable:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}
