package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/transaction"
)

// 1回の INSERT で送る行数。プレースホルダ数の上限（65535）を超えないようにする
const insertBatchSize = 500

const selectColumns = `
	id, title, description,
	to_char(event_date, 'YYYY-MM-DD') AS event_date,
	to_char(event_end_date, 'YYYY-MM-DD') AS event_end_date,
	location, prefecture, latitude, longitude,
	category, level, format, entry_fee, registration_status, registration_url,
	max_participants, current_participants,
	source, source_url, source_event_id, published_at, fetched_at, dupr_reflected, position`

const insertQuery = `
	INSERT INTO events (
		id, title, description, event_date, event_end_date, location, prefecture, latitude, longitude,
		category, level, format, entry_fee, registration_status, registration_url,
		max_participants, current_participants,
		source, source_url, source_event_id, published_at, fetched_at, dupr_reflected, position
	) VALUES (
		:id, :title, :description, :event_date, :event_end_date, :location, :prefecture, :latitude, :longitude,
		:category, :level, :format, :entry_fee, :registration_status, :registration_url,
		:max_participants, :current_participants,
		:source, :source_url, :source_event_id, :published_at, :fetched_at, :dupr_reflected, :position
	)`

const upsertSuffix = `
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		event_date = EXCLUDED.event_date,
		event_end_date = EXCLUDED.event_end_date,
		location = EXCLUDED.location,
		prefecture = EXCLUDED.prefecture,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		category = EXCLUDED.category,
		level = EXCLUDED.level,
		format = EXCLUDED.format,
		entry_fee = EXCLUDED.entry_fee,
		registration_status = EXCLUDED.registration_status,
		registration_url = EXCLUDED.registration_url,
		max_participants = EXCLUDED.max_participants,
		current_participants = EXCLUDED.current_participants,
		source = EXCLUDED.source,
		source_url = EXCLUDED.source_url,
		source_event_id = EXCLUDED.source_event_id,
		published_at = EXCLUDED.published_at,
		fetched_at = EXCLUDED.fetched_at,
		dupr_reflected = EXCLUDED.dupr_reflected,
		position = EXCLUDED.position,
		updated_at = NOW()`

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID                  string         `db:"id"`
	Title               string         `db:"title"`
	Description         string         `db:"description"`
	EventDate           *string        `db:"event_date"`
	EventEndDate        *string        `db:"event_end_date"`
	Location            *string        `db:"location"`
	Prefecture          *string        `db:"prefecture"`
	Latitude            *float64       `db:"latitude"`
	Longitude           *float64       `db:"longitude"`
	Category            string         `db:"category"`
	Level               string         `db:"level"`
	Format              pq.StringArray `db:"format"`
	EntryFee            *string        `db:"entry_fee"`
	RegistrationStatus  string         `db:"registration_status"`
	RegistrationURL     *string        `db:"registration_url"`
	MaxParticipants     *int           `db:"max_participants"`
	CurrentParticipants *int           `db:"current_participants"`
	Source              string         `db:"source"`
	SourceURL           string         `db:"source_url"`
	SourceEventID       *string        `db:"source_event_id"`
	PublishedAt         string         `db:"published_at"`
	FetchedAt           string         `db:"fetched_at"`
	DuprReflected       *bool          `db:"dupr_reflected"`
	Position            int            `db:"position"`
}

func toRow(e *event.Event, position int) eventRow {
	format := make(pq.StringArray, len(e.Format))
	for i, f := range e.Format {
		format[i] = string(f)
	}
	return eventRow{
		ID:                  e.ID,
		Title:               e.Title,
		Description:         e.Description,
		EventDate:           e.EventDate,
		EventEndDate:        e.EventEndDate,
		Location:            e.Location,
		Prefecture:          e.Prefecture,
		Latitude:            e.Latitude,
		Longitude:           e.Longitude,
		Category:            string(e.Category),
		Level:               string(e.Level),
		Format:              format,
		EntryFee:            e.EntryFee,
		RegistrationStatus:  string(e.RegistrationStatus),
		RegistrationURL:     e.RegistrationURL,
		MaxParticipants:     e.MaxParticipants,
		CurrentParticipants: e.CurrentParticipants,
		Source:              string(e.Source),
		SourceURL:           e.SourceURL,
		SourceEventID:       e.SourceEventID,
		PublishedAt:         e.PublishedAt,
		FetchedAt:           e.FetchedAt,
		DuprReflected:       e.DuprReflected,
		Position:            position,
	}
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	format := make([]event.Format, 0, len(r.Format))
	for _, f := range r.Format {
		format = append(format, event.ParseFormat(f))
	}
	if len(format) == 0 {
		format = []event.Format{event.FormatUnknown}
	}
	return &event.Event{
		ID:                  r.ID,
		Title:               r.Title,
		Description:         r.Description,
		EventDate:           r.EventDate,
		EventEndDate:        r.EventEndDate,
		Location:            r.Location,
		Prefecture:          r.Prefecture,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		Category:            event.ParseCategory(r.Category),
		Level:               event.ParseLevel(r.Level),
		Format:              format,
		EntryFee:            r.EntryFee,
		RegistrationStatus:  event.ParseRegistrationStatus(r.RegistrationStatus),
		RegistrationURL:     r.RegistrationURL,
		MaxParticipants:     r.MaxParticipants,
		CurrentParticipants: r.CurrentParticipants,
		Source:              event.Source(r.Source),
		SourceURL:           r.SourceURL,
		SourceEventID:       r.SourceEventID,
		PublishedAt:         r.PublishedAt,
		FetchedAt:           r.FetchedAt,
		DuprReflected:       r.DuprReflected,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db        *sqlx.DB
	txManager transaction.Manager
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db, txManager: NewTxManager(db)}
}

// ReplaceAll は1トランザクション内で全件削除してから挿入する
func (r *EventRepository) ReplaceAll(ctx context.Context, events []*event.Event) error {
	rows, err := prepareRows(events)
	if err != nil {
		return err
	}
	return RunInTx(ctx, r.txManager, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
			return fmt.Errorf("イベントの削除に失敗しました: %w", err)
		}
		return insertRows(ctx, tx, insertQuery, rows)
	})
}

// Upsert はイベントを追加・更新する。既存の行は削除しない
func (r *EventRepository) Upsert(ctx context.Context, events []*event.Event) error {
	rows, err := prepareRows(events)
	if err != nil {
		return err
	}
	return RunInTx(ctx, r.txManager, func(tx *sqlx.Tx) error {
		return insertRows(ctx, tx, insertQuery+upsertSuffix, rows)
	})
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + selectColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は保存順でイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	query := `SELECT ` + selectColumns + ` FROM events ORDER BY position, id`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].toEntity()
	}
	return events, nil
}

// prepareRows は検証済みの行に変換する。同じIDは最初の1件だけを残す
func prepareRows(events []*event.Event) ([]eventRow, error) {
	rows := make([]eventRow, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("イベント %q は保存できません: %w", e.ID, err)
		}
		if _, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("イベント %q は保存できません: %w", e.ID, event.ErrDuplicateEventID)
		}
		seen[e.ID] = struct{}{}
		rows = append(rows, toRow(e, i))
	}
	return rows, nil
}

func insertRows(ctx context.Context, tx *sqlx.Tx, query string, rows []eventRow) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return fmt.Errorf("イベントの保存に失敗しました: %w", err)
		}
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
