// Package partials renders the htmx fragments returned by the design
// endpoints.
package partials

import (
	"context"
	"fmt"
	"io"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

var alertClasses = map[AlertKind]string{
	AlertSuccess: "border-emerald-200 bg-emerald-50 text-emerald-800",
	AlertError:   "border-red-200 bg-red-50 text-red-800",
	AlertInfo:    "border-sky-200 bg-sky-50 text-sky-800",
}

// Alert renders a dismissable message box. Extra classes override the
// defaults, so callers can change spacing or colours.
func Alert(kind AlertKind, message string, class ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		scheme, ok := alertClasses[kind]
		if !ok {
			scheme = alertClasses[AlertInfo]
		}
		classes := twmerge.Merge(append([]string{"rounded-md border p-4 text-sm", scheme}, class...)...)

		role := "status"
		if kind == AlertError {
			role = "alert"
		}

		_, err := fmt.Fprintf(w, `<div class="%s" role="%s">%s</div>`,
			templ.EscapeString(classes),
			role,
			templ.EscapeString(message),
		)
		return err
	})
}
