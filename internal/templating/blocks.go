package templating

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	kindIf   = "if"
	kindEach = "each"
)

var tagRE = regexp.MustCompile(`\{\{\s*(#if|#each|/if|/each|else)\b\s*([^{}]*?)\s*\}\}`)

// block is one balanced {{#if}} or {{#each}} section. Offsets index the text
// it was scanned from; elseStart is -1 when the block has no {{else}}.
type block struct {
	kind      string
	arg       string
	start     int
	end       int
	bodyStart int
	bodyEnd   int
	elseStart int
	elseEnd   int
}

// body returns the content between the opening tag and {{else}} or the
// closing tag.
func (b block) body(text string) string {
	if b.elseStart >= 0 {
		return text[b.bodyStart:b.elseStart]
	}
	return text[b.bodyStart:b.bodyEnd]
}

// alternative returns the {{else}} branch, or "" when there is none.
func (b block) alternative(text string) string {
	if b.elseStart < 0 {
		return ""
	}
	return text[b.elseEnd:b.bodyEnd]
}

// scanBlocks finds the top-level blocks of text in order. Tags are matched
// with a stack so blocks may nest. Stray closing tags and unclosed openings
// are reported as problems and left in the text.
func scanBlocks(text string) ([]block, []string) {
	var (
		blocks   []block
		problems []string
		stack    []block
	)

	for _, m := range tagRE.FindAllStringSubmatchIndex(text, -1) {
		tag := text[m[2]:m[3]]
		arg := text[m[4]:m[5]]

		switch tag {
		case "#if", "#each":
			stack = append(stack, block{
				kind:      strings.TrimPrefix(tag, "#"),
				arg:       arg,
				start:     m[0],
				bodyStart: m[1],
				elseStart: -1,
			})
		case "else":
			if len(stack) == 1 && stack[0].kind == kindIf && stack[0].elseStart < 0 {
				stack[0].elseStart = m[0]
				stack[0].elseEnd = m[1]
			}
		default:
			kind := strings.TrimPrefix(tag, "/")
			if len(stack) == 0 || stack[len(stack)-1].kind != kind {
				problems = append(problems, fmt.Sprintf("unmatched {{%s}} at offset %d", tag, m[0]))
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				continue
			}
			open.bodyEnd = m[0]
			open.end = m[1]
			blocks = append(blocks, open)
		}
	}

	for _, open := range stack {
		problems = append(problems, fmt.Sprintf("unclosed {{#%s %s}} at offset %d", open.kind, open.arg, open.start))
	}
	return blocks, problems
}
