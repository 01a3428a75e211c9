package postgres

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-pickleball-events/internal/config"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := config.Load()
	db, err := NewConnection(&cfg.Database)
	if err != nil {
		t.Skipf("DB接続エラー: %v", err)
	}
	require.NoError(t, RunMigrations(db.DB, "../../../migrations"))
	_, err = db.Exec("TRUNCATE TABLE events")
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE events")
		db.Close()
	})
	return db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func fullEvent(id string) *event.Event {
	return &event.Event{
		ID:                 id,
		Title:              "東京オープン",
		Description:        "説明",
		EventDate:          strPtr("2026-05-10"),
		EventEndDate:       strPtr("2026-05-11"),
		Location:           strPtr("有明コロシアム"),
		Prefecture:         strPtr("東京都"),
		Category:           event.CategoryTournament,
		Level:              event.LevelOpen,
		Format:             []event.Format{event.FormatDoubles, event.FormatMixed},
		EntryFee:           strPtr("¥3,000"),
		RegistrationStatus: event.RegistrationOpen,
		RegistrationURL:    strPtr("https://forms.gle/abc"),
		MaxParticipants:    intPtr(64),
		Source:             event.SourceJPA,
		SourceURL:          "https://example.com/" + id,
		SourceEventID:      strPtr("101"),
		PublishedAt:        "2026-03-01T10:00:00",
		FetchedAt:          "2026-03-15T03:00:00Z",
		DuprReflected:      boolPtr(true),
	}
}

func bareEvent(id string) *event.Event {
	return &event.Event{
		ID:                 id,
		Title:              "未定のイベント",
		Category:           event.CategoryOther,
		Level:              event.LevelUnknown,
		Format:             []event.Format{event.FormatUnknown},
		RegistrationStatus: event.RegistrationUnknown,
		Source:             event.SourceManual,
	}
}

func TestEventRepository_ReplaceAllAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []*event.Event{fullEvent("jpa-1"), bareEvent("manual-1")}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, fullEvent("jpa-1"), got[0])
	assert.Equal(t, bareEvent("manual-1"), got[1])

	// 2回目は前回分を残さない
	require.NoError(t, repo.ReplaceAll(ctx, []*event.Event{bareEvent("manual-2")}))
	got, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "manual-2", got[0].ID)
}

func TestEventRepository_ReplaceAllRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []*event.Event{bareEvent("keep")}))

	invalid := bareEvent("bad")
	invalid.EventDate = strPtr("2026-02-30")
	err := repo.ReplaceAll(ctx, []*event.Event{bareEvent("x"), invalid})
	assert.ErrorIs(t, err, event.ErrInvalidDate)

	// 失敗時は既存データが残る
	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ID)
}

func TestEventRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []*event.Event{bareEvent("a"), bareEvent("b")}))

	updated := bareEvent("a")
	updated.Title = "更新後"
	require.NoError(t, repo.Upsert(ctx, []*event.Event{updated, bareEvent("c")}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	a, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "更新後", a.Title)

	_, err = repo.GetByID(ctx, "b")
	assert.NoError(t, err)
}

func TestEventRepository_DuplicateIDsRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []*event.Event{bareEvent("existing")}))

	first := bareEvent("dup")
	first.Title = "first"
	second := bareEvent("dup")
	second.Title = "second"

	err := repo.ReplaceAll(ctx, []*event.Event{first, second})
	assert.ErrorIs(t, err, event.ErrDuplicateEventID)

	// 既存の行は残る
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "existing", all[0].ID)
}

func TestPrepareRows_DuplicateID(t *testing.T) {
	_, err := prepareRows([]*event.Event{bareEvent("dup"), bareEvent("dup")})
	assert.ErrorIs(t, err, event.ErrDuplicateEventID)
}

func TestEventRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEventRepository(db)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, event.ErrEventNotFound)
}
