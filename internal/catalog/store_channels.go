package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const channelColumns = `id, name, language, watermark, active,
    summary_prompt, topics_prompt, introduction_prompt, script_prompt,
    reuse_cap_override, threshold_override, created_at`

// AddChannel inserts a channel, assigning an identifier when absent.
func (s *Store) AddChannel(ctx context.Context, channel *Channel) error {
	if channel == nil {
		return errors.New("channel is nil")
	}
	if strings.TrimSpace(channel.Name) == "" {
		return errors.New("channel name is required")
	}
	if channel.ID == "" {
		channel.ID = uuid.NewString()
	}
	lang, err := NormalizeLanguage(channel.Language)
	if err != nil {
		return err
	}
	channel.Language = lang
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO channels (
            id, name, language, watermark, active,
            summary_prompt, topics_prompt, introduction_prompt, script_prompt,
            reuse_cap_override, threshold_override, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		channel.ID,
		channel.Name,
		channel.Language,
		nullableString(channel.Watermark),
		boolToInt(channel.Active),
		nullableString(channel.Prompts.Summary),
		nullableString(channel.Prompts.Topics),
		nullableString(channel.Prompts.Introduction),
		nullableString(channel.Prompts.Script),
		channel.ReuseCapOverride,
		channel.ThresholdOverride,
		channel.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// UpdateChannel persists policy changes to an existing channel.
func (s *Store) UpdateChannel(ctx context.Context, channel *Channel) error {
	if channel == nil || channel.ID == "" {
		return errors.New("channel id is required")
	}
	lang, err := NormalizeLanguage(channel.Language)
	if err != nil {
		return err
	}
	channel.Language = lang

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE channels
         SET name = ?, language = ?, watermark = ?, active = ?,
             summary_prompt = ?, topics_prompt = ?, introduction_prompt = ?, script_prompt = ?,
             reuse_cap_override = ?, threshold_override = ?
         WHERE id = ?`,
		channel.Name,
		channel.Language,
		nullableString(channel.Watermark),
		boolToInt(channel.Active),
		nullableString(channel.Prompts.Summary),
		nullableString(channel.Prompts.Topics),
		nullableString(channel.Prompts.Introduction),
		nullableString(channel.Prompts.Script),
		channel.ReuseCapOverride,
		channel.ThresholdOverride,
		channel.ID,
	)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	return nil
}

// GetChannel fetches a channel by identifier.
func (s *Store) GetChannel(ctx context.Context, id string) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return channel, nil
}

// GetChannelByName fetches a channel by its unique name. Returns nil when absent.
func (s *Store) GetChannelByName(ctx context.Context, name string) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE name = ?`, strings.TrimSpace(name))
	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel by name: %w", err)
	}
	return channel, nil
}

// ListChannels returns all channels ordered by name.
func (s *Store) ListChannels(ctx context.Context) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*Channel, error) {
	var (
		channel    Channel
		watermark  sql.NullString
		active     int
		summary    sql.NullString
		topics     sql.NullString
		intro      sql.NullString
		script     sql.NullString
		createdRaw sql.NullString
	)
	err := row.Scan(
		&channel.ID,
		&channel.Name,
		&channel.Language,
		&watermark,
		&active,
		&summary,
		&topics,
		&intro,
		&script,
		&channel.ReuseCapOverride,
		&channel.ThresholdOverride,
		&createdRaw,
	)
	if err != nil {
		return nil, err
	}
	channel.Watermark = watermark.String
	channel.Active = active != 0
	channel.Prompts = ChannelPrompts{
		Summary:      summary.String,
		Topics:       topics.String,
		Introduction: intro.String,
		Script:       script.String,
	}
	if channel.CreatedAt, err = parseTime(createdRaw); err != nil {
		return nil, err
	}
	return &channel, nil
}
