package activity

// #region imports
import (
	"strings"
)

// #endregion

// #region category-tables

var codingApps = []string{
	"code", "vscode", "cursor", "goland", "intellij", "pycharm",
	"vim", "nvim", "neovim", "emacs", "zed", "xcode",
	"terminal", "iterm", "alacritty", "kitty", "ghostty", "wezterm",
}

var planningApps = []string{
	"notion", "obsidian", "linear", "jira", "trello", "asana",
	"todoist", "things", "calendar", "fantastical", "omnifocus",
}

var communicationApps = []string{
	"slack", "discord", "mail", "outlook", "thunderbird",
	"zoom", "meet", "teams", "messages", "telegram", "signal",
}

var browserApps = []string{
	"chrome", "chromium", "safari", "firefox", "arc", "edge", "brave",
}

var codingURLMarkers = []string{
	"github.com", "gitlab.com", "bitbucket.org", "localhost", "127.0.0.1",
	"pkg.go.dev", "godoc.org",
}

var planningURLMarkers = []string{
	"notion.so", "linear.app", "atlassian.net", "trello.com", "asana.com",
	"docs.google.com", "calendar.google.com", "miro.com", "figma.com",
}

var researchURLMarkers = []string{
	"stackoverflow.com", "stackexchange.com", "news.ycombinator.com",
	"reddit.com", "wikipedia.org", "arxiv.org", "medium.com", "dev.to",
	"youtube.com", "lobste.rs",
}

var communicationURLMarkers = []string{
	"mail.google.com", "slack.com", "discord.com", "web.whatsapp.com",
	"teams.microsoft.com", "meet.google.com",
}

// #endregion

// #region categorize

// Categorize assigns a work category from the app name and URL.
// URL markers win over app names so browser activity is split by site.
func Categorize(s Snapshot) Category {
	url := strings.ToLower(s.URL)
	if url != "" {
		switch {
		case containsAny(url, codingURLMarkers):
			return CategoryCoding
		case containsAny(url, planningURLMarkers):
			return CategoryPlanning
		case containsAny(url, communicationURLMarkers):
			return CategoryCommunication
		case containsAny(url, researchURLMarkers):
			return CategoryResearch
		}
	}

	app := strings.ToLower(s.App)
	switch {
	case containsAny(app, codingApps):
		return CategoryCoding
	case containsAny(app, planningApps):
		return CategoryPlanning
	case containsAny(app, communicationApps):
		return CategoryCommunication
	case containsAny(app, browserApps):
		// Un-marked browsing reads as research, not entertainment;
		// the alignment classifier decides whether it is off track.
		return CategoryResearch
	}
	return CategoryOther
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// #endregion
