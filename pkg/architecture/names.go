package architecture

import (
	"strings"
	"unicode"
)

// words splits a class name at case boundaries, keeping acronyms together:
// "UIManager" yields "ui" and "manager", "EnemyAI" yields "enemy" and "ai".
func words(name string) []string {
	runes := []rune(name)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		split := unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) ||
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) ||
			cur == '_'
		if split {
			if w := strings.Trim(string(runes[start:i]), "_"); w != "" {
				out = append(out, strings.ToLower(w))
			}
			start = i
		}
	}
	if w := strings.Trim(string(runes[start:]), "_"); w != "" {
		out = append(out, strings.ToLower(w))
	}
	return out
}

// keywords matches class names against lowercase keywords. Keywords of two
// letters or fewer ("ai", "ui") must be a whole word of the name so that
// "Container" is not AI; longer ones match anywhere.
type keywords []string

func (k keywords) match(name string) bool {
	lower := strings.ToLower(name)
	var split []string
	for _, kw := range k {
		if len(kw) > 2 {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if split == nil {
			split = words(name)
		}
		for _, w := range split {
			if w == kw {
				return true
			}
		}
	}
	return false
}

var (
	inputNames      = keywords{"input", "controller", "player"}
	outputNames     = keywords{"ui", "display", "render", "audio", "visual"}
	processingNames = keywords{"logic", "behavior", "behaviour", "ai", "physics"}
)

// dataTypes is checked in order; the first match names the data a component carries
var dataTypes = []struct {
	names keywords
	label string
}{
	{keywords{"input", "controller"}, "Input Data"},
	{keywords{"ui", "display"}, "UI Data"},
	{keywords{"physics", "movement"}, "Physics Data"},
	{keywords{"audio", "sound"}, "Audio Data"},
	{keywords{"ai", "enemy"}, "AI Data"},
	{keywords{"camera"}, "Camera Data"},
	{keywords{"manager"}, "Management Data"},
}

const defaultDataType = "Game Data"

// systemRules is checked in order; a component joins the first system it matches
var systemRules = []struct {
	names          keywords
	system         string
	responsibility string
}{
	{keywords{"player"}, "Player System", "Manage player behavior, input, and state"},
	{keywords{"enemy", "ai"}, "AI System", "Control enemy behavior and artificial intelligence"},
	{keywords{"ui", "menu"}, "UI System", "Handle user interface and interaction"},
	{keywords{"camera"}, "Camera System", "Manage camera movement and behavior"},
	{keywords{"audio", "sound"}, "Audio System", "Control sound effects and music"},
	{keywords{"physics"}, "Physics System", "Manage physics simulation and collision"},
	{keywords{"manager"}, "Management System", "Coordinate game services and shared state"},
	{keywords{"controller"}, "Control System", "Drive objects from input and game rules"},
}

const coreSystem = "Core System"

func systemOf(name string) (system, responsibility string) {
	for _, r := range systemRules {
		if r.names.match(name) {
			return r.system, r.responsibility
		}
	}
	return coreSystem, "Handle core gameplay functionality"
}
