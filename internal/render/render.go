package render

import "strings"

// Markdown renders markdown content for terminal display
func Markdown(content string, opts Options) (string, error) {
	r, err := pool.get(opts)
	if err != nil {
		return "", err
	}
	defer pool.put(opts, r)

	return r.Render(content)
}

// MarkdownOrPlain renders content and falls back to the raw text when the
// renderer cannot be built. Surrounding blank lines glamour adds are trimmed.
func MarkdownOrPlain(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
