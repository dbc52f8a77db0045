// Package activation implements the precedence gate that decides, per
// query, whether a collection participates in retrieval (spec component
// E). The decision is recomputed every call — there is no cached
// activation state to invalidate.
package activation

import (
	"regexp"
	"strings"

	"github.com/vecthare/vecthare/internal/condition"
	"github.com/vecthare/vecthare/internal/types"
)

// Decide applies the precedence chain from spec §4.5:
//  1. disabled -> skip
//  2. alwaysActive -> include
//  3. non-empty triggers -> matched against the scan window -> include on match
//  4. enabled conditions with rules -> include iff they evaluate true
//  5. neither triggers nor conditions -> include (auto-activate)
func Decide(meta types.CollectionMeta, window []string, ctx condition.Context) bool {
	if !meta.Enabled {
		return false
	}
	if meta.AlwaysActive {
		return true
	}

	hasTriggers := len(meta.Triggers) > 0
	if hasTriggers {
		scanned := window
		if meta.TriggerScanDepth > 0 && len(scanned) > meta.TriggerScanDepth {
			scanned = scanned[len(scanned)-meta.TriggerScanDepth:]
		}
		if matchTriggers(meta.Triggers, scanned, meta.TriggerMatchMode, meta.TriggerCaseSensitive) {
			return true
		}
		if !hasEnabledRules(meta.Conditions) {
			return false
		}
	}

	if hasEnabledRules(meta.Conditions) {
		return condition.Evaluate(meta.Conditions, ctx)
	}

	return true
}

func hasEnabledRules(tree types.ConditionTree) bool {
	return tree.Enabled && len(tree.Rules) > 0
}

// matchTriggers evaluates every trigger against every message in the scan
// window and combines the per-trigger results with matchMode.
func matchTriggers(triggers []string, window []string, mode types.TriggerMatchMode, caseSensitive bool) bool {
	text := strings.Join(window, "\n")

	results := make([]bool, len(triggers))
	for i, trig := range triggers {
		results[i] = triggerMatches(trig, text, caseSensitive)
	}

	if mode == types.TriggerMatchAll {
		for _, r := range results {
			if !r {
				return false
			}
		}
		return len(results) > 0
	}
	for _, r := range results {
		if r {
			return true
		}
	}
	return false
}

// triggerMatches recognizes the JS-style /pattern/flags regex form: a
// leading "/" followed eventually by a closing "/", with any trailing
// characters treated as flags. Only the "i" flag is understood and maps
// to the (?i) inline modifier; an unset TriggerCaseSensitive also implies
// case-insensitive matching, same as the literal-substring form below.
func triggerMatches(trigger, haystack string, caseSensitive bool) bool {
	if len(trigger) > 1 && strings.HasPrefix(trigger, "/") {
		if end := strings.LastIndex(trigger, "/"); end > 0 {
			pattern := trigger[1:end]
			flags := trigger[end+1:]
			if !caseSensitive || strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false
			}
			return re.MatchString(haystack)
		}
	}
	needle := trigger
	if !caseSensitive {
		needle = strings.ToLower(needle)
		haystack = strings.ToLower(haystack)
	}
	return strings.Contains(haystack, needle)
}
