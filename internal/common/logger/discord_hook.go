package logger

import (
	"github.com/rs/zerolog"

	"github.com/busboard/internal/common/discord"
)

// DiscordHook forwards error and fatal events to a Discord webhook
type DiscordHook struct {
	client *discord.Client
}

func NewDiscordHook(webhookURL string) *DiscordHook {
	return &DiscordHook{client: discord.NewClient(webhookURL)}
}

// Run implements zerolog.Hook. Delivery failures are dropped; logging them
// would recurse into the hook. Fatal and panic events are sent inline since
// the process ends right after they are written.
func (h *DiscordHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.ErrorLevel || level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}
	if level >= zerolog.FatalLevel {
		_ = h.client.SendLogMessage(level.String(), msg, nil)
		return
	}
	go func() {
		_ = h.client.SendLogMessage(level.String(), msg, nil)
	}()
}
