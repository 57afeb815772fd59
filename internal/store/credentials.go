package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// Credential keys
const (
	KeyBotToken = "discord_bot_token"
	KeyServerID = "discord_server_id"
)

// SavedCredentials are credentials read back from disk
type SavedCredentials struct {
	Credentials models.Credentials
	ExpiresAt   time.Time
}

// CredentialStore keeps the remembered bot token and guild id. The token is
// encrypted; both entries expire after the TTL.
type CredentialStore struct {
	kv     *Store
	cipher *Cipher
	ttl    time.Duration
	logger *zap.Logger
}

// NewCredentialStore creates a credential store on top of kv
func NewCredentialStore(kv *Store, cipher *Cipher, ttl time.Duration, logger *zap.Logger) *CredentialStore {
	return &CredentialStore{kv: kv, cipher: cipher, ttl: ttl, logger: logger}
}

// Save remembers creds for the TTL
func (cs *CredentialStore) Save(ctx context.Context, creds models.Credentials) error {
	encrypted, err := cs.cipher.Encrypt(creds.BotToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt bot token: %w", err)
	}

	if err := cs.kv.Put(ctx, KeyBotToken, encrypted, cs.ttl); err != nil {
		return err
	}
	if err := cs.kv.Put(ctx, KeyServerID, creds.GuildID.String(), cs.ttl); err != nil {
		return err
	}

	cs.logger.Info("saved credentials",
		zap.String("guild_id", creds.GuildID.String()),
		zap.Duration("ttl", cs.ttl),
	)
	return nil
}

// Load returns the remembered credentials. It returns ErrNotFound when
// either entry is missing or expired; unreadable entries are removed and
// also reported as ErrNotFound.
func (cs *CredentialStore) Load(ctx context.Context) (*SavedCredentials, error) {
	tokenEntry, err := cs.kv.Get(ctx, KeyBotToken)
	if err != nil {
		return nil, err
	}
	guildEntry, err := cs.kv.Get(ctx, KeyServerID)
	if err != nil {
		return nil, err
	}

	token, err := cs.cipher.Decrypt(tokenEntry.Value)
	if err != nil {
		cs.discard(ctx, "failed to decrypt saved bot token", err)
		return nil, ErrNotFound
	}

	creds, err := models.NewCredentials(token, guildEntry.Value)
	if err != nil {
		cs.discard(ctx, "saved credentials are invalid", err)
		return nil, ErrNotFound
	}

	saved := &SavedCredentials{Credentials: creds}
	if tokenEntry.ExpiresAt != nil {
		saved.ExpiresAt = *tokenEntry.ExpiresAt
	}
	return saved, nil
}

// Clear forgets the remembered credentials
func (cs *CredentialStore) Clear(ctx context.Context) error {
	if err := cs.kv.Delete(ctx, KeyBotToken, KeyServerID); err != nil {
		return err
	}
	cs.logger.Info("cleared saved credentials")
	return nil
}

func (cs *CredentialStore) discard(ctx context.Context, msg string, cause error) {
	cs.logger.Warn(msg, zap.Error(cause))
	if err := cs.Clear(ctx); err != nil && !errors.Is(err, ErrNotFound) {
		cs.logger.Warn("failed to clear saved credentials", zap.Error(err))
	}
}
