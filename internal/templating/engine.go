// Package templating expands proposal templates written in a small
// Handlebars-like syntax: {{VAR}} and ${{VAR}} placeholders, {{#if}} and
// {{#each}} blocks.
package templating

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Variables maps placeholder names to display-ready text.
type Variables map[string]string

// Options control how unresolved placeholders are treated.
type Options struct {
	// StrictValidation keeps unresolved placeholders in the output and logs
	// them as warnings.
	StrictValidation bool `mapstructure:"strictValidation" json:"strictValidation"`
	// CleanupUnresolved strips placeholders that are still unresolved after
	// rendering. Ignored when StrictValidation is set.
	CleanupUnresolved bool `mapstructure:"cleanupUnresolved" json:"cleanupUnresolved"`
}

var (
	commentRE      = regexp.MustCompile(`(?s)<!--.*?-->`)
	variableRE     = regexp.MustCompile(`\$?\{\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`)
	elementRE      = regexp.MustCompile(`\$?\{\{\s*(@index|[A-Za-z_][A-Za-z0-9_.]*)\s*\}\}`)
	leftoverRE     = regexp.MustCompile(`\$?\{\{[^{}]*\}\}`)
	maskTokenRE    = regexp.MustCompile("\uE000([0-9]+)\uE001")
	maskTokenTmpl  = "\uE000%d\uE001"
	valueTokenRE   = regexp.MustCompile("\uE002([0-9]+)\uE003")
	valueTokenTmpl = "\uE002%d\uE003"
)

// values holds substituted text behind opaque tokens until the render is
// done, so inserted text is never scanned as template syntax.
type values []string

func (v *values) hold(text string) string {
	*v = append(*v, text)
	return fmt.Sprintf(valueTokenTmpl, len(*v)-1)
}

func (v values) restore(text string) string {
	if len(v) == 0 {
		return text
	}
	return valueTokenRE.ReplaceAllStringFunc(text, func(token string) string {
		i, err := strconv.Atoi(valueTokenRE.FindStringSubmatch(token)[1])
		if err != nil || i >= len(v) {
			return token
		}
		return v[i]
	})
}

// Engine renders templates. It keeps no state between calls and is safe for
// concurrent use.
type Engine struct {
	logger  *zap.Logger
	options Options
}

// NewEngine creates a template engine.
func NewEngine(logger *zap.Logger, options Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, options: options}
}

// Render expands template. Placeholders outside blocks are substituted first
// with the blocks masked, then {{#if}} and {{#each}} blocks are expanded
// against data, and a second substitution pass fills placeholders the
// blocks exposed. Lookup misses are logged and never fail the render.
// Substituted values are inserted verbatim: placeholders inside them are not
// expanded.
func (e *Engine) Render(template string, vars Variables, data any) string {
	text := commentRE.ReplaceAllString(template, "")
	held := &values{}

	masked, saved := e.mask(text)
	masked = substitute(masked, vars, held)
	text = unmask(masked, saved)

	root := &scope{root: data}
	text = e.expandIfs(text, root)
	text = e.expandEach(text, root, held)

	text = substitute(text, vars, held)
	return held.restore(e.finish(text))
}

// mask swaps each top-level block for an opaque token so its condition, path
// and body survive the first substitution pass untouched.
func (e *Engine) mask(text string) (string, []string) {
	blocks, problems := scanBlocks(text)
	e.logProblems(problems)
	if len(blocks) == 0 {
		return text, nil
	}

	var b strings.Builder
	saved := make([]string, 0, len(blocks))
	last := 0
	for i, blk := range blocks {
		b.WriteString(text[last:blk.start])
		fmt.Fprintf(&b, maskTokenTmpl, i)
		saved = append(saved, text[blk.start:blk.end])
		last = blk.end
	}
	b.WriteString(text[last:])
	return b.String(), saved
}

func unmask(text string, saved []string) string {
	if len(saved) == 0 {
		return text
	}
	return maskTokenRE.ReplaceAllStringFunc(text, func(token string) string {
		i, err := strconv.Atoi(maskTokenRE.FindStringSubmatch(token)[1])
		if err != nil || i >= len(saved) {
			return token
		}
		return saved[i]
	})
}

// substitute replaces {{VAR}} and ${{VAR}} with vars[VAR]. Unknown names are
// left in place.
func substitute(text string, vars Variables, held *values) string {
	return variableRE.ReplaceAllStringFunc(text, func(match string) string {
		name := variableRE.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return held.hold(value)
		}
		return match
	})
}

// expandIfs resolves the top-level {{#if}} blocks of text, recursing into the
// branch that is kept. {{#each}} blocks are left for expandEach so that
// conditions inside a loop body see the loop element.
func (e *Engine) expandIfs(text string, s *scope) string {
	blocks, _ := scanBlocks(text)
	if len(blocks) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, blk := range blocks {
		b.WriteString(text[last:blk.start])
		last = blk.end
		if blk.kind != kindIf {
			b.WriteString(text[blk.start:blk.end])
			continue
		}
		if e.condition(blk.arg, s) {
			b.WriteString(e.expandIfs(blk.body(text), s))
		} else {
			b.WriteString(e.expandIfs(blk.alternative(text), s))
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

// expandEach repeats the body of each top-level {{#each}} block once per
// element of the list its path resolves to.
func (e *Engine) expandEach(text string, s *scope, held *values) string {
	blocks, _ := scanBlocks(text)
	if len(blocks) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, blk := range blocks {
		b.WriteString(text[last:blk.start])
		last = blk.end
		if blk.kind != kindEach {
			b.WriteString(text[blk.start:blk.end])
			continue
		}

		elements := e.elements(blk.arg, s)
		body := blk.body(text)
		for i, element := range elements {
			iteration := s.child(element, i)
			expanded := e.expandIfs(body, iteration)
			expanded = e.expandEach(expanded, iteration, held)
			b.WriteString(substituteElement(expanded, iteration, held))
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

func (e *Engine) condition(arg string, s *scope) bool {
	value, ok := s.lookup(arg)
	if !ok {
		e.logger.Warn("if condition did not resolve, omitting block",
			zap.String("op", "templating.condition"),
			zap.String("condition", arg),
		)
		return false
	}
	return truthy(value)
}

func (e *Engine) elements(path string, s *scope) []any {
	value, ok := s.lookup(path)
	if !ok {
		e.logger.Warn("each path did not resolve, treating as empty",
			zap.String("op", "templating.elements"),
			zap.String("path", path),
		)
		return nil
	}
	elements, ok := list(value)
	if !ok {
		e.logger.Warn("each path is not a list, treating as empty",
			zap.String("op", "templating.elements"),
			zap.String("path", path),
			zap.String("type", fmt.Sprintf("%T", value)),
		)
		return nil
	}
	return elements
}

// substituteElement fills {{this}}, {{this.prop}}, {{prop}} and {{@index}}
// from the loop element. Names the element does not have are left for the
// global variable pass.
func substituteElement(text string, s *scope, held *values) string {
	return elementRE.ReplaceAllStringFunc(text, func(match string) string {
		name := elementRE.FindStringSubmatch(match)[1]
		if name != "@index" && name != "this" && !strings.HasPrefix(name, "this.") {
			if _, ok := resolvePath(s.this, name); !ok {
				return match
			}
		}
		value, ok := s.lookup(name)
		if !ok {
			return match
		}
		return held.hold(display(value))
	})
}

// finish reports placeholders that survived both passes and strips them when
// cleanup is enabled.
func (e *Engine) finish(text string) string {
	leftovers := leftoverRE.FindAllString(text, -1)
	if len(leftovers) == 0 {
		return text
	}

	unique := make(map[string]bool, len(leftovers))
	for _, l := range leftovers {
		unique[l] = true
	}
	names := make([]string, 0, len(unique))
	for l := range unique {
		names = append(names, l)
	}
	sort.Strings(names)

	switch {
	case e.options.StrictValidation:
		e.logger.Warn("unresolved template placeholders",
			zap.String("op", "templating.Render"),
			zap.Strings("placeholders", names),
		)
	case e.options.CleanupUnresolved:
		e.logger.Debug("removing unresolved template placeholders",
			zap.String("op", "templating.Render"),
			zap.Strings("placeholders", names),
		)
		text = leftoverRE.ReplaceAllString(text, "")
	default:
		e.logger.Warn("unresolved template placeholders",
			zap.String("op", "templating.Render"),
			zap.Strings("placeholders", names),
		)
	}
	return text
}

func (e *Engine) logProblems(problems []string) {
	for _, p := range problems {
		e.logger.Warn("malformed template block",
			zap.String("op", "templating.mask"),
			zap.String("problem", p),
		)
	}
}

// Placeholders lists the distinct global variable names a template
// references, in order of first use. Names inside {{#each}} bodies belong to
// loop elements and are skipped.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	collectPlaceholders(commentRE.ReplaceAllString(template, ""), seen, &names)
	return names
}

func collectPlaceholders(text string, seen map[string]bool, names *[]string) {
	blocks, _ := scanBlocks(text)
	last := 0
	for _, blk := range blocks {
		addPlaceholders(text[last:blk.start], seen, names)
		if blk.kind == kindIf {
			collectPlaceholders(blk.body(text), seen, names)
			collectPlaceholders(blk.alternative(text), seen, names)
		}
		last = blk.end
	}
	addPlaceholders(text[last:], seen, names)
}

func addPlaceholders(text string, seen map[string]bool, names *[]string) {
	for _, m := range variableRE.FindAllStringSubmatch(text, -1) {
		if m[1] == "else" || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		*names = append(*names, m[1])
	}
}
