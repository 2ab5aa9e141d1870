package handler

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns a FuncMap with custom template functions.
// storeName is exposed to every template as {{storeName}}.
func TemplateFuncs(storeName string) template.FuncMap {
	return template.FuncMap{
		"storeName": func() string {
			return storeName
		},

		// Math functions
		"add": func(a, b int) int {
			return a + b
		},

		// Date/Time functions
		"year": func() int {
			return time.Now().Year()
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"formatDateISO": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.RFC3339)
		},
		"timeAgo": func(t time.Time) string {
			return timeAgo(t, time.Now())
		},

		// String functions
		"hasPrefix": func(s, prefix string) bool {
			return strings.HasPrefix(s, prefix)
		},
		"lower": func(s string) string {
			return strings.ToLower(s)
		},
		"title": func(v interface{}) string {
			return cases.Title(language.English).String(fmt.Sprint(v))
		},
		"truncate": func(s string, length int) string {
			r := []rune(s)
			if len(r) <= length {
				return s
			}
			return string(r[:length]) + "..."
		},
		// JSON encoding for safe JavaScript embedding
		"json": func(v interface{}) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS(`""`)
			}
			return template.JS(b)
		},

		// Conditional/Logic functions
		"default": func(defaultVal, val interface{}) interface{} {
			if val == nil || val == "" || val == 0 {
				return defaultVal
			}
			return val
		},

		// Form helpers
		"csrfField": func(token string) template.HTML {
			return template.HTML(fmt.Sprintf(`<input type="hidden" name="csrf_token" value="%s">`, template.HTMLEscapeString(token)))
		},

		// Order status badge class. Accepts interface{} for domain.OrderStatus.
		"statusClass": func(status interface{}) string {
			return "status-" + fmt.Sprint(status)
		},
	}
}

func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}
