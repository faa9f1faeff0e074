package moderation

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

// chatReport aggregates one tick's outcome for a single channel
type chatReport struct {
	chatID    string
	broken    []models.TrackedLink
	reachable int
	pending   int
}

// Text renders the report posted to the channel
func (r *chatReport) Text(mentionChannel bool) string {
	var b strings.Builder

	b.WriteString("🔗 **Revisión de enlaces**")
	if mentionChannel {
		fmt.Fprintf(&b, " de <#%s>", r.chatID)
	}
	b.WriteString("\n\n")

	if len(r.broken) == 0 {
		b.WriteString("✅ No se han encontrado enlaces rotos.\n")
	} else {
		fmt.Fprintf(&b, "⚠️ **%d** enlace(s) ya no funcionan:\n", len(r.broken))
		for _, link := range r.broken {
			fmt.Fprintf(&b, "> <%s> (publicado por <@%s>)\n", link.URL, link.PosterID)
		}
	}

	fmt.Fprintf(&b, "\n🟢 Enlaces que siguen funcionando: **%d**", r.reachable)
	if r.pending > 0 {
		fmt.Fprintf(&b, "\n⚪ Sin respuesta, se revisarán de nuevo: **%d**", r.pending)
	}
	return b.String()
}
