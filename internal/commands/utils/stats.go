package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/config"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
	"github.com/PancyStudios/ChannelGuardGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand(deps Deps) *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot y de la moderación",
		"utils",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()

				var stats moderation.Stats
				if deps.Stats != nil {
					stats = deps.Stats()
				}
				embed := statsEmbed(stats, time.Since(ctx.Client.StartTime))
				if u := ctx.Session.State.User; u != nil {
					embed.Footer.IconURL = u.AvatarURL("")
				}
				ctx.ReplyEmbed(embed)
			}()
			return nil
		},
	)
}

// statsEmbed combines runtime figures with the moderation counters
func statsEmbed(s moderation.Stats, uptime time.Duration) *discordgo.MessageEmbed {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	field := func(name, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
	}

	return &discordgo.MessageEmbed{
		Title: "📊 Estadísticas del Bot",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			field("🤖 Versión del Bot", config.Version),
			field("🐹 Versión de Go", strings.TrimPrefix(runtime.Version(), "go")),
			field("📚 Versión de DiscordGo", discordgo.VERSION),
			field("🖥 Uso de RAM", fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024)),
			field("⚙️ Goroutines", fmt.Sprintf("%d / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU())),
			field("⏱ Uptime", formatDuration(uptime)),
			field("🔗 Enlaces vigilados", fmt.Sprintf("%d", s.TrackedLinks)),
			field("🟢 / 🔴 / ⚪", fmt.Sprintf("%d / %d / %d", s.Reachable, s.Unreachable, s.Unknown)),
			field("⚠️ Usuarios con avisos", fmt.Sprintf("%d", s.WarnedMembers)),
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d días", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d horas", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutos", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d segundos", seconds))
	}

	return strings.Join(parts, ", ")
}
