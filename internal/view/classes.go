package view

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/calabozos/calabozos-backend/internal/model"
)

// ClassesPage lists the synced classes, linking each to its JSON detail route.
func ClassesPage(classes []model.ClassRecord) templ.Component {
	return Layout("Classes", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Classes</h1>`)

		if len(classes) == 0 {
			b.WriteString(`<p class="empty">No classes available.</p>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<ul class="classes">`)
		for _, class := range classes {
			href := templ.URL("/api/calabozos/classes/" + url.PathEscape(class.Index))
			b.WriteString(`<li data-index="`)
			b.WriteString(templ.EscapeString(class.Index))
			b.WriteString(`"><a href="`)
			b.WriteString(templ.EscapeString(string(href)))
			b.WriteString(`">`)
			b.WriteString(templ.EscapeString(displayName(class)))
			b.WriteString(`</a></li>`)
		}
		b.WriteString(`</ul>`)

		_, err := io.WriteString(w, b.String())
		return err
	}))
}

// ErrorPage reports a failed page load.
func ErrorPage(message string) templ.Component {
	return Layout("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h1>Something went wrong</h1><p class="error">`+
			templ.EscapeString(message)+`</p>`)
		return err
	}))
}

func displayName(class model.ClassRecord) string {
	if class.Name != "" {
		return class.Name
	}
	return class.Index
}
