package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

func newTagTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&entities.Tag{}, &entities.VisionTag{}, &entities.AudioTag{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestAddTagsIsIdempotent(t *testing.T) {
	db := newTagTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	names := []string{"meeting", "work"}
	if err := repo.AddTags(ctx, entities.TagContentTypeVision, 12, names); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddTags(ctx, entities.TagContentTypeVision, 12, names); err != nil {
		t.Fatal(err)
	}

	var links int64
	if err := db.Model(&entities.VisionTag{}).Count(&links).Error; err != nil {
		t.Fatal(err)
	}
	if links != 2 {
		t.Fatalf("re-adding tags must not duplicate links, got %d", links)
	}
	var tags int64
	if err := db.Model(&entities.Tag{}).Count(&tags).Error; err != nil {
		t.Fatal(err)
	}
	if tags != 2 {
		t.Fatalf("re-adding tags must not duplicate tag rows, got %d", tags)
	}

	got, err := repo.TagsForVision(ctx, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "meeting" || got[1] != "work" {
		t.Fatalf("unexpected tags %v", got)
	}
}

func TestTagRowsSharedAcrossContent(t *testing.T) {
	db := newTagTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	if err := repo.AddTags(ctx, entities.TagContentTypeVision, 1, []string{"meeting"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddTags(ctx, entities.TagContentTypeAudio, 7, []string{"meeting"}); err != nil {
		t.Fatal(err)
	}

	var tags int64
	if err := db.Model(&entities.Tag{}).Count(&tags).Error; err != nil {
		t.Fatal(err)
	}
	if tags != 1 {
		t.Fatalf("the same name must reuse one tag row, got %d", tags)
	}
	got, err := repo.TagsForAudio(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "meeting" {
		t.Fatalf("unexpected audio tags %v", got)
	}
}

func TestRemoveTagsIsIdempotent(t *testing.T) {
	db := newTagTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	// Removing from untagged content is a no-op, not an error.
	if err := repo.RemoveTags(ctx, entities.TagContentTypeVision, 5, []string{"ghost"}); err != nil {
		t.Fatal(err)
	}

	if err := repo.AddTags(ctx, entities.TagContentTypeVision, 5, []string{"meeting"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.RemoveTags(ctx, entities.TagContentTypeVision, 5, []string{"meeting"}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.TagsForVision(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("tag should be detached, got %v", got)
	}

	// Removing again after detachment is still a no-op.
	if err := repo.RemoveTags(ctx, entities.TagContentTypeVision, 5, []string{"meeting"}); err != nil {
		t.Fatal(err)
	}

	// The tag row itself survives detachment.
	var tags int64
	if err := db.Model(&entities.Tag{}).Count(&tags).Error; err != nil {
		t.Fatal(err)
	}
	if tags != 1 {
		t.Fatalf("removing links must keep the tag row, got %d", tags)
	}
}
