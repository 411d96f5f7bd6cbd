package room

import (
	"fmt"
	"html"
	"strings"
)

// maxSourceLinks caps how many citation links a reply renders. The
// synthesizer may carry more sources internally.
const maxSourceLinks = 3

// FormatReply renders the bot reply block: the answer followed by a
// references list of up to three links. The list is rendered even when
// empty, so the block shape is stable for clients.
func FormatReply(answer string, sources []string) string {
	if len(sources) > maxSourceLinks {
		sources = sources[:maxSourceLinks]
	}

	var sb strings.Builder
	sb.WriteString("<div style='text-align: left'>")
	sb.WriteString(html.EscapeString(answer))
	sb.WriteString("<br/><br/> References: <br/>")
	sb.WriteString("<ul style='font-size: 10px;'>\n")
	for _, link := range sources {
		esc := html.EscapeString(link)
		fmt.Fprintf(&sb, "<li><a href='%s' target='_blank'>%s</a></li>\n", esc, esc)
	}
	sb.WriteString("</ul>")
	sb.WriteString("</div>")
	return sb.String()
}

// FormatPlainReply renders the answer and up to three source URLs as plain
// text, for surfaces that render no HTML. No references section is emitted
// when there are no sources.
func FormatPlainReply(answer string, sources []string) string {
	if len(sources) > maxSourceLinks {
		sources = sources[:maxSourceLinks]
	}

	var sb strings.Builder
	sb.WriteString(answer)
	if len(sources) > 0 {
		sb.WriteString("\n\nReferences:")
		for _, link := range sources {
			sb.WriteString("\n- " + link)
		}
	}
	return sb.String()
}

// FormatReplyFor picks the reply rendering for a relay. The HTML block is
// the web client's contract; Telegram renders its own message layout and
// gets the plain form.
func FormatReplyFor(relay, answer string, sources []string) string {
	if relay == "telegram" {
		return FormatPlainReply(answer, sources)
	}
	return FormatReply(answer, sources)
}
