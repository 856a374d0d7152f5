package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"videoforge/internal/stage"
)

const itemColumns = `items.id, items.channel_id, channels.name, items.link, items.config_json,
    items.transcript_done_at, items.summary_done_at, items.topics_done_at,
    items.introduction_done_at, items.segment_content_done_at, items.audio_done_at,
    items.last_error, items.created_at, items.updated_at`

const itemJoin = ` FROM items JOIN channels ON channels.id = items.channel_id`

// AddItem registers a source link under a channel with the supplied config.
func (s *Store) AddItem(ctx context.Context, channelID, link string, cfg ItemConfig) (*Item, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, errors.New("item link is required")
	}
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal item config: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO items (channel_id, link, config_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		channelID,
		link,
		string(configJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(ctx, id)
}

// GetItem fetches an item by identifier.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+itemJoin+` WHERE items.id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns items ordered by creation, optionally filtered by channel
// name (empty selects all channels).
func (s *Store) ListItems(ctx context.Context, channelName string) ([]*Item, error) {
	query := `SELECT ` + itemColumns + itemJoin
	args := []any{}
	if strings.TrimSpace(channelName) != "" {
		query += ` WHERE channels.name = ?`
		args = append(args, strings.TrimSpace(channelName))
	}
	query += ` ORDER BY channels.name, items.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListPending returns items with at least one checkpoint still absent,
// grouped by channel then creation order. The batch driver walks this list.
// Checking every column rather than the terminal one alone keeps items with
// a gapped checkpoint sequence visible to the runner's order check.
func (s *Store) ListPending(ctx context.Context, channelName string) ([]*Item, error) {
	missing := make([]string, len(stageColumns))
	for i, column := range stageColumns {
		missing[i] = "items." + column + " IS NULL"
	}
	query := `SELECT ` + itemColumns + itemJoin + ` WHERE (` + strings.Join(missing, " OR ") + `) AND channels.active = 1`
	args := []any{}
	if strings.TrimSpace(channelName) != "" {
		query += ` AND channels.name = ?`
		args = append(args, strings.TrimSpace(channelName))
	}
	query += ` ORDER BY channels.name, items.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// UpdateItem persists config and error changes. Checkpoint columns are
// written only through MarkStageDone and ClearStagesFrom so the marker write
// stays an isolated, final operation.
func (s *Store) UpdateItem(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	configJSON, err := json.Marshal(item.Config)
	if err != nil {
		return fmt.Errorf("marshal item config: %w", err)
	}
	item.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE items SET link = ?, config_json = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		item.Link,
		string(configJSON),
		nullableString(item.LastError),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// MarkStageDone writes the checkpoint marker for one stage. Callers persist
// the stage artifact first; this write is always last so a crash in between
// reads as "not done" on the next run.
func (s *Store) MarkStageDone(ctx context.Context, itemID int64, st stage.Stage, at time.Time) error {
	if !st.Valid() {
		return fmt.Errorf("invalid stage %d", st)
	}
	timestamp := at.UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE items SET `+stageColumns[st]+` = ?, last_error = NULL, updated_at = ? WHERE id = ?`,
		timestamp,
		timestamp,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("mark stage %s done: %w", st, err)
	}
	return nil
}

// ClearStagesFrom removes the checkpoints for st and every later stage. This
// is the explicit reset tooling; the pipeline itself never clears markers.
func (s *Store) ClearStagesFrom(ctx context.Context, itemID int64, st stage.Stage) error {
	if !st.Valid() {
		return fmt.Errorf("invalid stage %d", st)
	}
	assignments := make([]string, 0, stage.Count-int(st))
	for i := int(st); i < stage.Count; i++ {
		assignments = append(assignments, stageColumns[i]+" = NULL")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE items SET `+strings.Join(assignments, ", ")+`, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		itemID,
	)
	if err != nil {
		return fmt.Errorf("clear stages from %s: %w", st, err)
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item       Item
		configRaw  sql.NullString
		doneRaw    [stage.Count]sql.NullString
		lastError  sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.ChannelID,
		&item.ChannelName,
		&item.Link,
		&configRaw,
		&doneRaw[0],
		&doneRaw[1],
		&doneRaw[2],
		&doneRaw[3],
		&doneRaw[4],
		&doneRaw[5],
		&lastError,
		&createdRaw,
		&updatedRaw,
	)
	if err != nil {
		return nil, err
	}

	item.Config = DefaultItemConfig()
	if configRaw.Valid && strings.TrimSpace(configRaw.String) != "" {
		if err := json.Unmarshal([]byte(configRaw.String), &item.Config); err != nil {
			return nil, fmt.Errorf("parse item config: %w", err)
		}
	}
	for i := range doneRaw {
		ptr, err := parseTimePtr(doneRaw[i])
		if err != nil {
			return nil, err
		}
		item.DoneAt[i] = ptr
	}
	item.LastError = lastError.String
	if item.CreatedAt, err = parseTime(createdRaw); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedRaw); err != nil {
		return nil, err
	}
	return &item, nil
}
