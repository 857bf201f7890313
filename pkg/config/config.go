package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

const defaultHTTPAddr = ":8080"

type Config struct {
	Token   string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	AppID   string `env:"DISCORD_APP_ID,required,notEmpty"`
	GuildID string `env:"DISCORD_GUILD_ID,required,notEmpty"`

	// channel holding the queue board; draft threads are opened under it
	QueueChannelID string `env:"DISCORD_CHANNEL_ID,required,notEmpty"`

	AdminRoleIDs []string `env:"ADMIN_ROLE_IDS" envSeparator:","`

	GameModesRaw    string        `env:"GAME_MODES" envDefault:"5v5:10"`
	CaptainDeadline time.Duration `env:"CAPTAIN_DEADLINE" envDefault:"30s"`
	CaptainTick     time.Duration `env:"CAPTAIN_TICK" envDefault:"1s"`
	ResetModeRaw    string        `env:"DRAFT_RESET_MODE" envDefault:"roster"`

	DBPath   string `env:"DB_PATH" envDefault:"pugs.db"`
	HTTPAddr string `env:"HTTP_ADDR"` // unset: :8080, set but empty: disabled
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	VoiceRequireToJoin          bool     `env:"VOICE_REQUIRE_TO_JOIN"`
	VoiceAllowedCategoryIDs     []string `env:"VOICE_ALLOWED_CATEGORY_IDS" envSeparator:","`
	VoiceAllowedChannelPrefixes []string `env:"VOICE_ALLOWED_CHANNEL_PREFIXES" envSeparator:","`

	GameModes   []draft.GameMode  `env:"-"`
	ResetPolicy draft.ResetPolicy `env:"-"`
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, set := os.LookupEnv("HTTP_ADDR"); !set {
		cfg.HTTPAddr = defaultHTTPAddr
	}

	modes, err := draft.ParseGameModes(cfg.GameModesRaw)
	if err != nil {
		return nil, fmt.Errorf("GAME_MODES: %w", err)
	}
	cfg.GameModes = modes

	if cfg.ResetPolicy, err = draft.ParseResetPolicy(cfg.ResetModeRaw); err != nil {
		return nil, fmt.Errorf("DRAFT_RESET_MODE: %w", err)
	}
	if cfg.CaptainDeadline <= 0 || cfg.CaptainTick <= 0 {
		return nil, fmt.Errorf("CAPTAIN_DEADLINE and CAPTAIN_TICK must be positive")
	}
	if cfg.CaptainTick > cfg.CaptainDeadline {
		return nil, fmt.Errorf("CAPTAIN_TICK (%s) exceeds CAPTAIN_DEADLINE (%s)", cfg.CaptainTick, cfg.CaptainDeadline)
	}

	cfg.AdminRoleIDs = trimAll(cfg.AdminRoleIDs)
	cfg.VoiceAllowedCategoryIDs = trimAll(cfg.VoiceAllowedCategoryIDs)
	cfg.VoiceAllowedChannelPrefixes = trimAll(cfg.VoiceAllowedChannelPrefixes)
	return cfg, nil
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.Trim(strings.TrimSpace(s), `"'`)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Redacted() string {
	tok := "[set]"
	if c.Token == "" {
		tok = "[empty]"
	}
	labels := make([]string, len(c.GameModes))
	for i, m := range c.GameModes {
		labels[i] = fmt.Sprintf("%s:%d", m.Label, m.Capacity)
	}
	return fmt.Sprintf(
		"appID=%s guildID=%s queueChannelID=%s modes=%s deadline=%s reset=%s db=%s http=%q token=%s",
		c.AppID, c.GuildID, c.QueueChannelID, strings.Join(labels, ","), c.CaptainDeadline,
		c.ResetPolicy, c.DBPath, c.HTTPAddr, tok,
	)
}
