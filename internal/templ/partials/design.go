package partials

import (
	"context"
	"fmt"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

const cardClasses = "rounded-lg border border-stone-200 bg-white p-4 shadow-sm"

// AdviceResult renders the design advice returned by POST /design/advice.
func AdviceResult(data AdviceResultData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<section id="advice-result" class="space-y-4">`)
		fmt.Fprintf(&b, `<p class="text-stone-700">%s</p>`, templ.EscapeString(data.Summary))

		if len(data.Recommendations) > 0 {
			b.WriteString(`<ul class="grid gap-4 sm:grid-cols-2">`)
			for _, rec := range data.Recommendations {
				writeRecommendation(&b, rec)
			}
			b.WriteString(`</ul>`)
		}

		if len(data.CareTips) > 0 {
			b.WriteString(`<div><h3 class="font-medium text-stone-900">Care tips</h3><ul class="mt-2 list-disc pl-5 text-sm text-stone-600">`)
			for _, tip := range data.CareTips {
				fmt.Fprintf(&b, `<li>%s</li>`, templ.EscapeString(tip))
			}
			b.WriteString(`</ul></div>`)
		}

		b.WriteString(`</section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeRecommendation(b *strings.Builder, rec RecommendationDisplay) {
	// Matched products get an accent border
	classes := cardClasses
	if rec.ProductURL != "" {
		classes = twmerge.Merge(cardClasses, "border-amber-300")
	}

	fmt.Fprintf(b, `<li class="%s">`, templ.EscapeString(classes))
	fmt.Fprintf(b, `<p class="text-xs uppercase tracking-wide text-stone-500">%s · %s</p>`,
		templ.EscapeString(rec.Category),
		templ.EscapeString(rec.Color),
	)

	if rec.ProductURL != "" {
		fmt.Fprintf(b, `<a class="mt-1 block font-medium text-stone-900 underline" href="%s">%s</a>`,
			templ.EscapeString(string(templ.URL(rec.ProductURL))),
			templ.EscapeString(rec.ProductName),
		)
		if rec.Price != "" {
			fmt.Fprintf(b, `<p class="text-sm text-stone-600">%s per panel</p>`, templ.EscapeString(rec.Price))
		}
	}

	fmt.Fprintf(b, `<p class="mt-2 text-sm text-stone-700">%s</p>`, templ.EscapeString(rec.Reason))
	b.WriteString(`</li>`)
}

// MockupResult renders the stored mockup returned by POST /design/mockup.
func MockupResult(data MockupResultData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<figure id="mockup-result" class="%s">`+
			`<img src="%s" width="%d" height="%d" alt="%s in %s" class="h-auto w-full rounded-md">`+
			`<figcaption class="mt-2 text-sm text-stone-600"><a class="underline" href="%s">%s</a> in %s</figcaption>`+
			`</figure>`,
			templ.EscapeString(cardClasses),
			templ.EscapeString(string(templ.URL(data.ImageURL))),
			data.Width,
			data.Height,
			templ.EscapeString(data.ProductName),
			templ.EscapeString(data.Color),
			templ.EscapeString(string(templ.URL(data.ProductURL))),
			templ.EscapeString(data.ProductName),
			templ.EscapeString(data.Color),
		)
		return err
	})
}
