package intent

import "strings"

// canonicalApps maps colloquial application names to the controlled
// vocabulary the automation layer understands. Unmapped targets pass through
// verbatim and are flagged for the search fallback downstream.
var canonicalApps = map[string]string{
	"camera":         "camera",
	"calculator":     "calculator",
	"calc":           "calculator",
	"files":          "file explorer",
	"file explorer":  "file explorer",
	"explorer":       "file explorer",
	"settings":       "settings",
	"notepad":        "notepad",
	"terminal":       "cmd",
	"command prompt": "cmd",
	"cmd":            "cmd",
	"task manager":   "task manager",
	"brave":          "brave",
	"chrome":         "google chrome",
	"google chrome":  "google chrome",
	"edge":           "microsoft edge",
	"microsoft edge": "microsoft edge",
	"browser":        "google chrome",
	"youtube":        "youtube",
	"spotify":        "spotify",
	"vs code":        "visual studio code",
	"vscode":         "visual studio code",
	"code":           "visual studio code",
	"word":           "microsoft word",
	"excel":          "microsoft excel",
}

// Canonicalize resolves a spoken target to its canonical app identifier.
// The second return reports whether the target is in the known vocabulary.
func Canonicalize(target string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(target))
	key = strings.TrimPrefix(key, "the ")
	if canonical, ok := canonicalApps[key]; ok {
		return canonical, true
	}
	return strings.TrimSpace(target), false
}
