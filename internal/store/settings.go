package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// KeySettings holds the JSON encoded settings
const KeySettings = "settings"

// SettingsStore persists presentation settings without expiry
type SettingsStore struct {
	kv     *Store
	logger *zap.Logger
}

// NewSettingsStore creates a settings store on top of kv
func NewSettingsStore(kv *Store, logger *zap.Logger) *SettingsStore {
	return &SettingsStore{kv: kv, logger: logger}
}

// Load returns the saved settings, or defaults when none were saved or the
// saved value cannot be used.
func (ss *SettingsStore) Load(ctx context.Context) (models.Settings, error) {
	entry, err := ss.kv.Get(ctx, KeySettings)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.DefaultSettings(), err
	}

	var s models.Settings
	if err := json.Unmarshal([]byte(entry.Value), &s); err != nil {
		ss.logger.Warn("saved settings are corrupt, using defaults", zap.Error(err))
		return models.DefaultSettings(), nil
	}

	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		ss.logger.Warn("saved settings are invalid, using defaults", zap.Error(err))
		return models.DefaultSettings(), nil
	}
	return s, nil
}

// Save validates and stores s
func (ss *SettingsStore) Save(ctx context.Context, s models.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return ss.kv.Put(ctx, KeySettings, string(payload), 0)
}
