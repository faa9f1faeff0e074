package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/PancyStudios/ChannelGuardGo/pkg/discord"
)

type fakeDB struct{ status string }

func (f fakeDB) GetStatus() (string, bool) { return f.status, true }

type fakeBroker bool

func (f fakeBroker) IsConnected() bool { return bool(f) }

func TestStatusText(t *testing.T) {
	tick := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	deps := Deps{
		Stats:    func() moderation.Stats { return moderation.Stats{TrackedLinks: 7, LastTick: tick} },
		Database: fakeDB{status: "🟢 Conectado"},
		Broker:   fakeBroker(false),
	}

	text := statusText(deps, 42, 3)

	for _, want := range []string{"(42ms)", "Base de datos: 🟢 Conectado", "MQTT: 🔴 Desconectado", "Servidores: 3", "Enlaces vigilados: 7", "<t:1769904000:R>"} {
		if !strings.Contains(text, want) {
			t.Errorf("statusText() missing %q in %q", want, text)
		}
	}
}

func TestStatusTextWithoutOptionalServices(t *testing.T) {
	text := statusText(Deps{}, 0, 0)

	if !strings.Contains(text, "Base de datos: ⚪ Desactivada") || !strings.Contains(text, "MQTT: ⚪ Desactivado") {
		t.Errorf("disabled services not reported: %q", text)
	}
	if strings.Contains(text, "Enlaces vigilados") {
		t.Error("engine counters shown without a stats source")
	}
}

func TestStatsEmbed(t *testing.T) {
	embed := statsEmbed(moderation.Stats{TrackedLinks: 3, Reachable: 1, Unreachable: 1, Unknown: 1, WarnedMembers: 2}, 90*time.Second)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	if values["🔗 Enlaces vigilados"] != "3" {
		t.Errorf("tracked links = %q, want 3", values["🔗 Enlaces vigilados"])
	}
	if values["🟢 / 🔴 / ⚪"] != "1 / 1 / 1" {
		t.Errorf("status split = %q", values["🟢 / 🔴 / ⚪"])
	}
	if values["⏱ Uptime"] != "1 minutos, 30 segundos" {
		t.Errorf("uptime = %q", values["⏱ Uptime"])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 segundos"},
		{45 * time.Second, "45 segundos"},
		{26*time.Hour + 3*time.Minute, "1 días, 2 horas, 3 minutos"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegisterUtilsCommands(t *testing.T) {
	c := &discord.ExtendedClient{Commands: discord.NewCommandCollection()}
	c.CommandHandler = discord.NewCommandHandler(c)

	RegisterUtilsCommands(c, Deps{})

	for _, key := range []string{"utils.status", "utils.stats", "utils.help"} {
		if _, ok := c.Commands.Get(key); !ok {
			t.Errorf("command %q not registered", key)
		}
	}
	if n := len(c.CommandHandler.SlashCommands()); n != 1 {
		t.Errorf("published commands = %d, want 1", n)
	}
}
