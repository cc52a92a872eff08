// Package markup renders post and profile text to HTML: a fixed set of
// allowed inline elements, a small markdown subset and bbcode-style tags.
// Pure text transform; no state.
package markup

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var allowedElements = []string{
	"hue", "sat", "lit", "theme", "comment", "p", "span", "style", "img", "div", "a", "b", "i",
	"strong", "em", "r", "rf",
}

type rule struct {
	pattern *regexp.Regexp
	replace string
}

var rules = []rule{
	// image with sizing
	{regexp.MustCompile(`(?m)!\[(.*?)\]\((.*?)\):\{(.*?)x(.*?)\}`),
		`<img alt="$1" title="$1" src="$2" style="width: $3px; height: $4px;" />`},

	// admonitions: title and content, then title only
	{regexp.MustCompile(`(?m)^(!{3})\s(.*?)\s(.+)\n(.+)$`),
		"<div class=\"mdnote note-$2\">\n<b class=\"mdnote-title\">$3</b>\n<p>$4</p>\n</div>\n"},
	{regexp.MustCompile(`(?m)^(!{3})\s(.*?)\s(.*?)$`),
		"<div class=\"mdnote note-$2\"><b class=\"mdnote-title\">$3</b></div>\n"},

	// markdown images and links
	{regexp.MustCompile(`(?m)!\[(.*?)\]\((.*?)\)`), `<img alt="$1" title="$1" src="$2" />`},
	{regexp.MustCompile(`(?m)\[(.*?)\]\((.*?)\)`), `<a href="$2">$1</a>`},

	// bbcode
	{regexp.MustCompile(`(?m)\[b\](.*?)\[/b\]`), `<strong>$1</strong>`},
	{regexp.MustCompile(`(?m)\[i\](.*?)\[/i\]`), `<em>$1</em>`},
	{regexp.MustCompile(`(?m)\[bi\](.*?)\[/bi\]`), `<strong><em>$1</em></strong>`},
	{regexp.MustCompile(`(?m)\[u\](.*?)\[/u\]`),
		`<span style="text-decoration: underline;" role="underline">$1</span>`},
	{regexp.MustCompile(`(?ms)\[c\](.*?)\[/c\]`), `<r class="text-center">$1</r>`},
	{regexp.MustCompile(`(?ms)\[r\](.*?)\[/r\]`), `<r class="text-right">$1</r>`},
	{regexp.MustCompile(`(?ms)\[t (.*?)\](.*?)\[/t\]`),
		`<span style="color: $1;" role="custom-color">$2</span>`},
	{regexp.MustCompile(`(?ms)\[m (.*?)\](.*?)\[/m\]`),
		`<span title="$1" role="custom-message">$2</span>`},
	{regexp.MustCompile(`(?m)\[h\](.*?)\[/h\]`), `<span class="highlight">$1</span>`},
}

var trailingRules = []rule{
	{regexp.MustCompile(`(?m)\[/\]`), `<br />`},
	{regexp.MustCompile(`(?m)\[cl\](.*?)\[/cl\]`), `<code>$1</code>`},
	{regexp.MustCompile(`(?ms)\[src (.*?)\]\n(.*?)\n\[/src\]`),
		`<pre class="lang-$1"><code>$2</code></pre>`},

	// spoiler
	{regexp.MustCompile(`(?m)(\|\|)\s*(.*?)\s*(\|\|)`), `<span role="spoiler">$2</span>`},

	// scrub inline handlers and script-ish vectors
	{regexp.MustCompile(`(?m)^(on)(.*)=(.*)"$`), ``},
	{regexp.MustCompile(`(?m)(href)="(javascript:)(.*)"`), ``},
	{regexp.MustCompile(`(?m)(<script.*>)(.*?)(</script>)`), ``},
	{regexp.MustCompile(`(?m)(<script.*>)`), ``},
	{regexp.MustCompile(`(?m)(<link.*>)`), ``},
	{regexp.MustCompile(`(?m)(<meta.*>)`), ``},

	// auto paragraph
	{regexp.MustCompile(`(?ms)^(.*?)\n{2,}`), "<p>\n$1\n</p>"},
}

var headingRules = buildHeadingRules()

func buildHeadingRules() []rule {
	out := make([]rule, 0, 6)
	for i := 1; i < 7; i++ {
		out = append(out, rule{
			regexp.MustCompile(fmt.Sprintf(`(?m)\[h%d\](.*?)\[/h%d\]`, i, i)),
			fmt.Sprintf(`<h%d id="$1">$1</h%d>`, i, i),
		})
	}
	return out
}

// Render transforms raw text to HTML. The input is escaped first, then the
// allowed element set is unescaped back into real tags.
func Render(input string) string {
	out := html.EscapeString(input)

	for _, element := range allowedElements {
		out = strings.ReplaceAll(out, "&lt;"+element+"&gt;", "<"+element+">")
		out = regexp.MustCompile(`(?m)&lt;`+element+`(.*?)&gt;`).ReplaceAllString(out, "<"+element+"$1>")
		out = strings.ReplaceAll(out, "&lt;/"+element+"&gt;", "</"+element+">")
	}

	for _, r := range rules {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}
	for _, r := range headingRules {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}
	for _, r := range trailingRules {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}

	return out
}
