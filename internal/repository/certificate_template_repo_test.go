package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
	"gorm.io/gorm"
)

func setupTemplateRepo(t *testing.T) CertificateTemplateRepository {
	// Setup in-memory DB
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.CertificateTemplate{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewCertificateTemplateRepository(db)
}

func TestCertificateTemplateRepository_CRUD(t *testing.T) {
	repo := setupTemplateRepo(t)
	ctx := context.Background()

	bg := "certificate-templates/backgrounds/graduation.png"
	tpl := &model.CertificateTemplate{
		Name:            "Graduation",
		BackgroundAsset: &bg,
		IsActive:        true,
		Layout: []model.LayoutField{
			{Key: "recipient_name", X: 50, Y: 40, FontSize: 24, Align: model.AlignCenter},
			{Key: "course_name", X: 50, Y: 60, FontSize: 16, Align: model.AlignCenter},
		},
	}
	if err := repo.Create(ctx, tpl); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if tpl.ID == 0 {
		t.Fatalf("expected ID to be assigned")
	}
	if tpl.CreatedAt.IsZero() || tpl.UpdatedAt.IsZero() {
		t.Errorf("timestamps should be set on create")
	}

	got, err := repo.GetByID(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Layout) != 2 {
		t.Fatalf("expected 2 layout fields, got %d", len(got.Layout))
	}
	if got.Layout[0].Key != "recipient_name" || got.Layout[1].Key != "course_name" {
		t.Errorf("layout order should be preserved, got %+v", got.Layout)
	}
	if got.Background() != bg || !got.IsActive {
		t.Errorf("unexpected template: %+v", got)
	}

	// 布局整体替换
	got.Layout = []model.LayoutField{{Key: "issue_date", X: 10, Y: 90}}
	got.IsActive = false
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	updated, err := repo.GetByID(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(updated.Layout) != 1 || updated.Layout[0].Key != "issue_date" {
		t.Errorf("layout should be replaced wholesale, got %+v", updated.Layout)
	}
	if updated.IsActive {
		t.Errorf("IsActive should be false after update")
	}

	if err := repo.Delete(ctx, tpl.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCertificateTemplateRepository_DeleteMissing(t *testing.T) {
	repo := setupTemplateRepo(t)

	if err := repo.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCertificateTemplateRepository_ListAndEmptyLayout(t *testing.T) {
	repo := setupTemplateRepo(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if err := repo.Create(ctx, &model.CertificateTemplate{Name: name}); err != nil {
			t.Fatalf("failed to create template: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(list))
	}
	if list[0].Name != "A" || list[2].Name != "C" {
		t.Errorf("unexpected order: %s, %s", list[0].Name, list[2].Name)
	}
	if list[0].Layout == nil || len(list[0].Layout) != 0 {
		t.Errorf("nil layout should be stored as an empty array, got %#v", list[0].Layout)
	}
	if list[0].HasBackground() {
		t.Errorf("template without upload should have no background")
	}
}
