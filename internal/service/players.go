package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lucid-arena/internal/domain"
)

// MaxNicknameLength bounds nicknames in runes.
const MaxNicknameLength = 64

// ProfileStore is the durable home of player profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, subject string) (*domain.PlayerProfile, error)
	UpsertProfile(ctx context.Context, profile domain.PlayerProfile) (*domain.PlayerProfile, error)
}

// ProfileCache is a read-through cache in front of the ProfileStore.
type ProfileCache interface {
	GetPlayerInfo(ctx context.Context, subject string) (*domain.PlayerInfo, error)
	SetPlayerInfo(ctx context.Context, info domain.PlayerInfo) error
}

// PlayerService resolves authenticated subjects to in-game nicknames
type PlayerService struct {
	store  ProfileStore
	cache  ProfileCache
	logger *slog.Logger
}

// NewPlayerService creates a new player service. cache may be nil.
func NewPlayerService(store ProfileStore, cache ProfileCache, logger *slog.Logger) *PlayerService {
	return &PlayerService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Nickname returns the nickname registered for subject. Cache failures fall
// through to the store.
func (s *PlayerService) Nickname(ctx context.Context, subject string) (string, error) {
	if s.cache != nil {
		info, err := s.cache.GetPlayerInfo(ctx, subject)
		switch {
		case err == nil && info.Nickname != "":
			return info.Nickname, nil
		case err != nil && !errors.Is(err, domain.ErrUnknownPlayer):
			s.logger.Warn("profile cache lookup failed", "subject", subject, "error", err)
		}
	}

	profile, err := s.store.GetProfile(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPlayer) {
			return "", err
		}
		return "", fmt.Errorf("loading profile: %w", err)
	}

	s.remember(ctx, profile)
	return profile.Nickname, nil
}

// Profile returns the full stored profile for subject
func (s *PlayerService) Profile(ctx context.Context, subject string) (*domain.PlayerProfile, error) {
	return s.store.GetProfile(ctx, subject)
}

// SaveNickname registers or renames the player behind subject
func (s *PlayerService) SaveNickname(ctx context.Context, subject, email, nickname string) (*domain.PlayerProfile, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", domain.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return nil, fmt.Errorf("%w: nickname longer than %d characters", domain.ErrInvalidRequest, MaxNicknameLength)
	}

	profile, err := s.store.UpsertProfile(ctx, domain.PlayerProfile{
		Subject:  subject,
		Email:    email,
		Nickname: nickname,
	})
	if err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	s.remember(ctx, profile)
	s.logger.Info("nickname saved", "subject", subject, "nickname", profile.Nickname)
	return profile, nil
}

func (s *PlayerService) remember(ctx context.Context, profile *domain.PlayerProfile) {
	if s.cache == nil {
		return
	}
	info := domain.PlayerInfo{Subject: profile.Subject, Nickname: profile.Nickname}
	if err := s.cache.SetPlayerInfo(ctx, info); err != nil {
		// Don't fail the request if caching fails
		s.logger.Warn("failed to cache profile", "subject", profile.Subject, "error", err)
	}
}
