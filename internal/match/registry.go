// Package match keeps the regex rules ("dingus" patterns) that turn displayed
// text into clickable regions.
package match

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/termhost/termhost/internal/logging"
)

var matchLog = logging.ForComponent(logging.CompMatch)

// Hint is the pointer affordance shown while hovering a matched region.
type Hint int

const (
	// HintAuto picks a hint from the rotation by rule id.
	HintAuto Hint = iota
	HintPointer
	HintHand
	HintText
)

// rotation is cycled by id so consecutive builtin rules get distinct cursors.
var rotation = []Hint{HintPointer, HintHand}

func (h Hint) String() string {
	switch h {
	case HintAuto:
		return "auto"
	case HintPointer:
		return "pointer"
	case HintHand:
		return "hand"
	case HintText:
		return "text"
	default:
		return fmt.Sprintf("hint(%d)", int(h))
	}
}

// Rule is one registered pattern. Rules are immutable once registered.
type Rule struct {
	ID      int
	Source  string
	Pattern *regexp.Regexp
	Hint    Hint
}

// Match is the result of a successful Check.
type Match struct {
	ID    int
	Text  string
	Start int
	End   int
	Hint  Hint
}

// CompileError reports a pattern that failed to compile.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Registry stores rules by id and evaluates them in registration order.
type Registry struct {
	mu     sync.Mutex
	nextID int
	rules  map[int]*Rule
	order  []int
}

// NewRegistry returns an empty registry. Ids start at 0.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[int]*Rule)}
}

// Register compiles pattern and stores it under the next id. A compile
// failure returns a *CompileError and consumes no id.
func (r *Registry) Register(pattern string, hint Hint) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return -1, &CompileError{Pattern: pattern, Err: err}
	}
	return r.add(pattern, re, hint), nil
}

func (r *Registry) add(source string, re *regexp.Regexp, hint Hint) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	if hint == HintAuto {
		hint = rotation[id%len(rotation)]
	}
	r.rules[id] = &Rule{ID: id, Source: source, Pattern: re, Hint: hint}
	r.order = append(r.order, id)

	matchLog.Debug("rule_registered", slog.Int("id", id), slog.String("hint", hint.String()))
	return id
}

// RegisterAll registers each pattern with HintAuto. Patterns that fail to
// compile are logged and skipped; their errors are returned alongside the
// ids that were assigned.
func (r *Registry) RegisterAll(patterns []string) ([]int, []error) {
	var ids []int
	var errs []error
	for _, p := range patterns {
		id, err := r.Register(p, HintAuto)
		if err != nil {
			matchLog.Warn("rule_compile_failed", slog.String("pattern", p), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errs
}

// Remove drops the rule with the given id. Unknown ids are ignored.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[id]; !ok {
		return
	}
	delete(r.rules, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	matchLog.Debug("rule_removed", slog.Int("id", id))
}

// RemoveAll drops every rule. The id counter keeps counting.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = make(map[int]*Rule)
	r.order = nil
}

// Len returns the number of active rules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Hint returns the resolved hint of rule id.
func (r *Registry) Hint(id int) (Hint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return HintAuto, false
	}
	return rule.Hint, true
}

// Check returns the first rule, in registration order, with a match that
// covers byte offset pos of text. An earlier rule wins over a later one
// even when the later rule's match is longer.
func (r *Registry) Check(text string, pos int) (Match, bool) {
	if pos < 0 || pos >= len(text) {
		return Match{}, false
	}

	r.mu.Lock()
	rules := make([]*Rule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.rules[id])
	}
	r.mu.Unlock()

	for _, rule := range rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			if loc[0] > pos {
				break
			}
			if pos < loc[1] {
				return Match{
					ID:    rule.ID,
					Text:  text[loc[0]:loc[1]],
					Start: loc[0],
					End:   loc[1],
					Hint:  rule.Hint,
				}, true
			}
		}
	}
	return Match{}, false
}

// CheckCell is Check for a display column. Wide runes occupy two cells.
func (r *Registry) CheckCell(line string, column int) (Match, bool) {
	offset, ok := cellOffset(line, column)
	if !ok {
		return Match{}, false
	}
	return r.Check(line, offset)
}

// cellOffset maps a display column to the byte offset of the rune drawn in it.
func cellOffset(line string, column int) (int, bool) {
	if column < 0 {
		return 0, false
	}
	cells := 0
	for i, ch := range line {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if column < cells+w {
			return i, true
		}
		cells += w
	}
	return 0, false
}
