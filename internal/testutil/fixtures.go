package testutil

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"

	"github.com/parsascontentcorner/discordlite/internal/config"
	"github.com/parsascontentcorner/discordlite/internal/models"
)

// Identifiers shared by the fixtures
const (
	TestBotToken = "MTEwMDAwMDAwMDAwMDAwMDAwMQ.GtEsT0.abcdefghijklmnopqrstuvwxyz0123456789_-AB"
	TestGuildID  = "1000000000000000001"
)

// Channel ids returned by GenerateChannels
var (
	GeneralChannelID  = snowflake.ID(1100000000000000001)
	RandomChannelID   = snowflake.ID(1100000000000000002)
	ArchiveChannelID  = snowflake.ID(1100000000000000003)
	VoiceChannelID    = snowflake.ID(1100000000000000010)
	CategoryChannelID = snowflake.ID(1100000000000000011)
	BotUserID         = snowflake.ID(1300000000000000001)
)

// GenerateCredentials returns valid credentials for the mock server.
func GenerateCredentials() models.Credentials {
	return models.Credentials{BotToken: TestBotToken, GuildID: snowflake.MustParse(TestGuildID)}
}

// GenerateGuild returns the test guild.
func GenerateGuild() models.Guild {
	return models.Guild{ID: snowflake.MustParse(TestGuildID), Name: "Lite Server"}
}

// GenerateBotUser returns the bot user the test token belongs to.
func GenerateBotUser() models.User {
	name := "Lite Bot"
	return models.User{ID: BotUserID, Username: "litebot", GlobalName: &name, Bot: true}
}

// GenerateUser creates a human author with a deterministic id per name.
func GenerateUser(username string) models.User {
	var sum uint64
	for _, r := range username {
		sum = sum*31 + uint64(r)
	}
	return models.User{ID: snowflake.ID(1300000000000000100 + sum%1000), Username: username}
}

// GenerateChannels returns a mixed channel list, deliberately out of
// position order. Only the three text channels survive filtering, ordered
// general, random, archive.
func GenerateChannels() []models.Channel {
	guildID := snowflake.MustParse(TestGuildID)
	topic := "General discussion"
	return []models.Channel{
		{ID: ArchiveChannelID, GuildID: guildID, Type: models.ChannelTypeGuildText, Name: "archive", Position: 5},
		{ID: VoiceChannelID, GuildID: guildID, Type: models.ChannelTypeGuildVoice, Name: "Voice", Position: 0},
		{ID: GeneralChannelID, GuildID: guildID, Type: models.ChannelTypeGuildText, Name: "general", Position: 1, Topic: &topic},
		{ID: CategoryChannelID, GuildID: guildID, Type: models.ChannelTypeGuildCategory, Name: "Text Channels", Position: 0},
		{ID: RandomChannelID, GuildID: guildID, Type: models.ChannelTypeGuildText, Name: "random", Position: 2},
	}
}

// GenerateMessages builds n ascending messages for a channel starting at
// firstID.
func GenerateMessages(channelID, firstID snowflake.ID, n int) []models.Message {
	author := GenerateUser("alice")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Message, n)
	for i := range out {
		out[i] = models.Message{
			ID:        firstID + snowflake.ID(i),
			ChannelID: channelID,
			Author:    author,
			Content:   fmt.Sprintf("message %d", i+1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

// GenerateSessionID generates a random session ID (UUID).
func GenerateSessionID() string {
	return uuid.New().String()
}

// GenerateEncryptionKey generates a 32-byte encryption key for testing.
func GenerateEncryptionKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate encryption key: %v", err))
	}
	return key
}

// GenerateTestConfig creates a test configuration with valid values.
// dataDir is usually t.TempDir(); baseURL points at a mock server.
func GenerateTestConfig(dataDir, baseURL string) *config.Config {
	return &config.Config{
		Discord: config.DiscordConfig{
			APIBaseURL:         baseURL,
			UserAgent:          "DiscordBot (https://example.com/discordlite, test)",
			RateLimitPerSecond: 1000,
		},
		Polling: config.PollingConfig{
			Interval:     50 * time.Millisecond,
			MessageLimit: config.MaxMessageLimit,
		},
		Storage: config.StorageConfig{
			DataDir:           dataDir,
			CredentialTTLDays: 30,
		},
		Security: config.SecurityConfig{
			TokenEncryptionKey: GenerateEncryptionKey(),
		},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "console",
		},
	}
}
