package templating

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type lineItem struct {
	Description string `json:"description"`
	Total       string `json:"total"`
	Optional    bool   `json:"isOptional"`
}

func TestRender(t *testing.T) {
	vars := Variables{
		"NAME":   "Jo",
		"DETAIL": "VIP",
		"TOTAL":  "$151,800",
		"CITY":   "Portland",
	}
	data := map[string]any{
		"SHOW":       false,
		"HAS_ADDONS": true,
		"client":     map[string]any{"name": "Jo", "vip": true, "notes": ""},
		"addOns": []map[string]any{
			{"name": "Driveway", "price": "$5,000"},
			{"name": "Fire Sprinklers", "price": "$4,500"},
		},
		"tags":  []string{"a", "b"},
		"items": []lineItem{{Description: "Base", Total: "$132,000"}, {Description: "Design", Total: "$12,500", Optional: true}},
		"count": 0,
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"Condition false removes block", "Hello {{NAME}}{{#if SHOW}} - {{DETAIL}}{{/if}}", "Hello Jo"},
		{"Condition true keeps body", "Hello {{NAME}}{{#if HAS_ADDONS}} - {{DETAIL}}{{/if}}", "Hello Jo - VIP"},
		{"Dollar placeholder", "Total: ${{TOTAL}}", "Total: $151,800"},
		{"Whitespace in placeholder", "{{ NAME }}", "Jo"},
		{"Dotted condition", "{{#if client.vip}}VIP{{/if}}", "VIP"},
		{"Empty string is false", "{{#if client.notes}}notes{{/if}}", ""},
		{"Zero is false", "{{#if count}}some{{/if}}", ""},
		{"Else branch", "{{#if SHOW}}yes{{else}}no{{/if}}", "no"},
		{"Missing condition is false", "a{{#if NOPE}}b{{/if}}c", "ac"},
		{"Missing variable left in place", "Hi {{UNKNOWN}}", "Hi {{UNKNOWN}}"},
		{"Each with bare and this props", "{{#each addOns}}[{{@index}} {{name}} {{this.price}}]{{/each}}",
			"[0 Driveway $5,000][1 Fire Sprinklers $4,500]"},
		{"Each over strings", "{{#each tags}}<{{this}}>{{/each}}", "<a><b>"},
		{"Each over structs by json tag", "{{#each items}}{{description}}={{total}};{{/each}}", "Base=$132,000;Design=$12,500;"},
		{"Each falls back to global variables", "{{#each tags}}{{this}}@{{CITY}} {{/each}}", "a@Portland b@Portland "},
		{"If inside each uses element", "{{#each items}}{{description}}{{#if isOptional}} (optional){{/if}}|{{/each}}",
			"Base|Design (optional)|"},
		{"Each inside if", "{{#if HAS_ADDONS}}{{#each tags}}{{this}}{{/each}}{{/if}}", "ab"},
		{"Nested if", "{{#if HAS_ADDONS}}x{{#if SHOW}}y{{/if}}z{{/if}}", "xz"},
		{"Each over non list is empty", "[{{#each client}}x{{/each}}]", "[]"},
		{"Each over missing path is empty", "[{{#each nothing}}x{{/each}}]", "[]"},
		{"HTML comments stripped", "a<!-- {{NAME}} {{#if X}} -->b", "ab"},
		{"Multiline comment stripped", "a<!--\nnote\n-->b", "ab"},
		{"Variable outside and inside blocks", "{{NAME}}{{#if HAS_ADDONS}}/{{NAME}}{{/if}}", "Jo/Jo"},
	}

	engine := NewEngine(zap.NewNop(), Options{StrictValidation: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Render(tt.template, vars, data); got != tt.expected {
				t.Errorf("Render(%q) = %q, expected %q", tt.template, got, tt.expected)
			}
		})
	}
}

func TestRenderStructData(t *testing.T) {
	type proposal struct {
		HasDesign bool
		Items     []lineItem
		Client    *struct{ Name string }
	}
	data := proposal{
		HasDesign: true,
		Items:     []lineItem{{Description: "Base"}},
		Client:    &struct{ Name string }{Name: "Sam"},
	}

	got := NewEngine(nil, Options{}).Render("{{#if HasDesign}}D{{/if}}{{#each Items}}{{Description}}{{/each}}{{#if Client.Name}}!{{/if}}", nil, data)
	if got != "DBase!" {
		t.Errorf("Render() = %q, expected %q", got, "DBase!")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	template := `<h1>{{TITLE}}</h1>
<!-- header -->
{{#if HAS_ITEMS}}<ul>{{#each items}}<li>{{@index}}: {{name}} ${{PRICE}}</li>{{/each}}</ul>{{/if}}
{{#if HIDDEN}}<p>{{SECRET}}</p>{{/if}}`
	vars := Variables{"TITLE": "Proposal", "PRICE": "$100"}
	data := map[string]any{
		"HAS_ITEMS": true,
		"HIDDEN":    false,
		"items":     []map[string]string{{"name": "one"}, {"name": "two"}},
	}

	engine := NewEngine(nil, Options{StrictValidation: true})
	first := engine.Render(template, vars, data)
	if strings.Contains(first, "{{") {
		t.Fatalf("Render() left placeholders: %q", first)
	}
	if second := engine.Render(first, vars, data); second != first {
		t.Errorf("second Render() changed output:\nfirst  %q\nsecond %q", first, second)
	}
	if !strings.Contains(first, "<li>1: two $100</li>") {
		t.Errorf("Render() = %q, missing second item", first)
	}
}

func TestRenderDoesNotExpandSubstitutedValues(t *testing.T) {
	vars := Variables{
		"A":      "{{B}}",
		"B":      "secret",
		"BLOCK":  "{{#if SHOW}}x{{/if}}",
		"DOLLAR": "${{B}}",
	}
	data := map[string]any{
		"SHOW":  true,
		"items": []map[string]string{{"name": "{{B}}"}, {"name": "{{@index}}"}},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"Variable value kept verbatim", "{{A}} {{B}}", "{{B}} secret"},
		{"Dollar value kept verbatim", "${{DOLLAR}}", "${{B}}"},
		{"Block syntax in a value is text", "{{BLOCK}}", "{{#if SHOW}}x{{/if}}"},
		{"Value inside a block", "{{#if SHOW}}[{{A}}]{{/if}}", "[{{B}}]"},
		{"Element value kept verbatim", "{{#each items}}<{{name}}>{{/each}}", "<{{B}}><{{@index}}>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, options := range []Options{{StrictValidation: true}, {CleanupUnresolved: true}} {
				core, logs := observer.New(zapcore.WarnLevel)
				got := NewEngine(zap.New(core), options).Render(tt.template, vars, data)
				if got != tt.expected {
					t.Errorf("Render(%q) with %+v = %q, expected %q", tt.template, options, got, tt.expected)
				}
				if logs.FilterMessage("unresolved template placeholders").Len() != 0 {
					t.Errorf("Render(%q) reported substituted text as unresolved: %v", tt.template, logs.All())
				}
			}
		})
	}
}

func TestRenderUnresolvedPlaceholders(t *testing.T) {
	template := "A {{MISSING}} B ${{ALSO_MISSING}} C"

	tests := []struct {
		name     string
		options  Options
		expected string
	}{
		{"Strict keeps placeholders", Options{StrictValidation: true, CleanupUnresolved: true}, template},
		{"Default keeps placeholders", Options{}, template},
		{"Cleanup strips placeholders", Options{CleanupUnresolved: true}, "A  B  C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			got := NewEngine(zap.New(core), tt.options).Render(template, Variables{}, nil)
			if got != tt.expected {
				t.Errorf("Render() = %q, expected %q", got, tt.expected)
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected one log entry, got %d", len(entries))
			}
			placeholders, ok := entries[0].ContextMap()["placeholders"].([]interface{})
			if !ok || len(placeholders) != 2 {
				t.Errorf("expected both placeholders in the log entry, got %v", entries[0].ContextMap())
			}
		})
	}
}

func TestRenderLogsSoftFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(zap.New(core), Options{})

	engine.Render("{{#if nope}}x{{/if}}{{#each scalar}}y{{/each}}{{#each gone}}z{{/each}}{{/if}}", nil, map[string]any{"scalar": 5})

	for _, msg := range []string{
		"if condition did not resolve, omitting block",
		"each path is not a list, treating as empty",
		"each path did not resolve, treating as empty",
		"malformed template block",
	} {
		if logs.FilterMessage(msg).Len() == 0 {
			t.Errorf("expected a %q warning, got %v", msg, logs.All())
		}
	}
}

func TestRenderFalseConditionIsNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	NewEngine(zap.New(core), Options{}).Render("{{#if SHOW}}x{{/if}}", nil, map[string]any{"SHOW": false})
	if logs.Len() != 0 {
		t.Errorf("a resolved false condition should not be logged, got %v", logs.All())
	}
}

func TestScanBlocks(t *testing.T) {
	text := "a{{#if X}}b{{#each Y}}c{{/each}}{{else}}d{{/if}}e{{#each Z}}f{{/each}}"
	blocks, problems := scanBlocks(text)
	if len(problems) != 0 {
		t.Fatalf("scanBlocks() problems = %v", problems)
	}
	if len(blocks) != 2 {
		t.Fatalf("scanBlocks() found %d top-level blocks, expected 2", len(blocks))
	}
	if blocks[0].kind != kindIf || blocks[0].arg != "X" {
		t.Errorf("first block = %+v", blocks[0])
	}
	if got := blocks[0].body(text); got != "b{{#each Y}}c{{/each}}" {
		t.Errorf("body() = %q", got)
	}
	if got := blocks[0].alternative(text); got != "d" {
		t.Errorf("alternative() = %q", got)
	}
	if blocks[1].kind != kindEach || blocks[1].arg != "Z" || blocks[1].body(text) != "f" {
		t.Errorf("second block = %+v", blocks[1])
	}
}

func TestScanBlocksProblems(t *testing.T) {
	tests := []struct {
		text     string
		problems int
		blocks   int
	}{
		{"{{/if}}", 1, 0},
		{"{{#if A}}x", 1, 0},
		{"{{#if A}}x{{/each}}{{/if}}", 1, 1},
		{"{{#each A}}{{#if B}}{{/if}}{{/each}}", 0, 1},
	}
	for _, tt := range tests {
		blocks, problems := scanBlocks(tt.text)
		if len(problems) != tt.problems || len(blocks) != tt.blocks {
			t.Errorf("scanBlocks(%q) = %d blocks, %v; expected %d blocks and %d problems", tt.text, len(blocks), problems, tt.blocks, tt.problems)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	template := "{{A}} ${{B}}<!-- {{HIDDEN}} -->{{#if C}}{{A}}{{else}}{{D}}{{/if}}{{#each list}}{{this.x}}{{name}}{{/each}}{{E}}"
	expected := []string{"A", "B", "D", "E"}
	if got := Placeholders(template); !reflect.DeepEqual(got, expected) {
		t.Errorf("Placeholders() = %v, expected %v", got, expected)
	}
}

func TestResolvePath(t *testing.T) {
	data := map[string]any{
		"a":    map[string]any{"b": []any{"zero", map[string]int{"c": 3}}},
		"nil":  nil,
		"item": lineItem{Description: "x"},
	}
	tests := []struct {
		path     string
		expected any
		found    bool
	}{
		{"a.b.0", "zero", true},
		{"a.b.1.c", 3, true},
		{"a.b.5", nil, false},
		{"a.missing", nil, false},
		{"nil", nil, true},
		{"item.description", "x", true},
		{"item.Description", "x", true},
		{"item.description.more", nil, false},
		{"a..b", nil, false},
	}
	for _, tt := range tests {
		got, ok := resolvePath(data, tt.path)
		if ok != tt.found || !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("resolvePath(%q) = %v, %v; expected %v, %v", tt.path, got, ok, tt.expected, tt.found)
		}
	}
}

func TestTruthy(t *testing.T) {
	var nilPtr *int
	one := 1
	tests := []struct {
		value    any
		expected bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{"", false},
		{"false", true},
		{0, false},
		{2.5, true},
		{[]string{}, false},
		{[]string{"a"}, true},
		{map[string]int{}, false},
		{nilPtr, false},
		{&one, true},
		{struct{}{}, true},
	}
	for _, tt := range tests {
		if got := truthy(tt.value); got != tt.expected {
			t.Errorf("truthy(%#v) = %v, expected %v", tt.value, got, tt.expected)
		}
	}
}
