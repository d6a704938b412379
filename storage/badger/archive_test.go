package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/storage"
)

func TestArchivePutAndGet(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	record := &core.ArchiveRecord{
		TenantId:   "tenant-a",
		DocumentId: "note:n1",
		Version:    1,
		Title:      "First note",
		Text:       "The raw, unmodified text.",
		SourceType: core.SourceTypeNote,
		SourceId:   "n1",
		Metadata:   map[string]string{"origin": "test"},
	}
	if err := stores.Archive.PutRecord(ctx, record); err != nil {
		t.Fatalf("Failed to put record: %v", err)
	}

	retrieved, err := stores.Archive.GetRecord(ctx, "tenant-a", "note:n1", 1)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if retrieved.Text != "The raw, unmodified text." {
		t.Errorf("Expected original text, got %q", retrieved.Text)
	}
	if retrieved.Metadata["origin"] != "test" {
		t.Errorf("Expected metadata to round-trip, got %v", retrieved.Metadata)
	}
	if retrieved.ArchivedAt.IsZero() {
		t.Error("Expected ArchivedAt to be set")
	}

	// Re-archiving the same version overwrites in place
	record.Text = "Corrected raw text."
	if err := stores.Archive.PutRecord(ctx, record); err != nil {
		t.Fatalf("Failed to re-put record: %v", err)
	}
	retrieved, err = stores.Archive.GetRecord(ctx, "tenant-a", "note:n1", 1)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if retrieved.Text != "Corrected raw text." {
		t.Errorf("Expected overwritten text, got %q", retrieved.Text)
	}
}

func TestArchiveGet_NotFound(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	_, err = stores.Archive.GetRecord(context.Background(), "tenant-a", "note:n1", 1)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestArchivePut_Invalid(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	err = stores.Archive.PutRecord(ctx, &core.ArchiveRecord{DocumentId: "note:n1", Version: 1})
	if !errors.Is(err, core.ErrEmptyTenant) {
		t.Fatalf("Expected ErrEmptyTenant, got %v", err)
	}

	err = stores.Archive.PutRecord(ctx, &core.ArchiveRecord{TenantId: "tenant-a", DocumentId: "note:n1"})
	if !errors.Is(err, core.ErrInvalidVersion) {
		t.Fatalf("Expected ErrInvalidVersion, got %v", err)
	}
}

func TestArchiveListRecords(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		record := &core.ArchiveRecord{
			TenantId:   "tenant-a",
			DocumentId: "note:n1",
			Version:    v,
			Text:       "version text",
		}
		if err := stores.Archive.PutRecord(ctx, record); err != nil {
			t.Fatalf("Failed to put version %d: %v", v, err)
		}
	}

	records, err := stores.Archive.ListRecords(ctx, "tenant-a", "note:n1")
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, record := range records {
		if record.Version != i+1 {
			t.Errorf("Expected version %d at position %d, got %d", i+1, i, record.Version)
		}
	}
}

func TestArchiveSoftDelete(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	for v := 1; v <= 2; v++ {
		record := &core.ArchiveRecord{
			TenantId:   "tenant-a",
			DocumentId: "note:n1",
			Version:    v,
			Text:       "version text",
		}
		if err := stores.Archive.PutRecord(ctx, record); err != nil {
			t.Fatalf("Failed to put version %d: %v", v, err)
		}
	}

	if err := stores.Archive.SoftDeleteDocument(ctx, "tenant-a", "note:n1"); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}

	// The data survives with the flag raised
	records, err := stores.Archive.ListRecords(ctx, "tenant-a", "note:n1")
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	for _, record := range records {
		if !record.IsDeleted {
			t.Errorf("Expected version %d flagged deleted", record.Version)
		}
		if record.Text == "" {
			t.Errorf("Expected version %d text preserved", record.Version)
		}
	}

	err = stores.Archive.SoftDeleteDocument(ctx, "tenant-a", "note:unknown")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestArchiveTenantIsolation(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer stores.Close()

	ctx := context.Background()

	for _, tenant := range []string{"tenant-a", "tenant-b"} {
		record := &core.ArchiveRecord{
			TenantId:   tenant,
			DocumentId: "note:n1",
			Version:    1,
			Text:       "text for " + tenant,
		}
		if err := stores.Archive.PutRecord(ctx, record); err != nil {
			t.Fatalf("Failed to put record for %s: %v", tenant, err)
		}
	}

	retrieved, err := stores.Archive.GetRecord(ctx, "tenant-b", "note:n1", 1)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if retrieved.Text != "text for tenant-b" {
		t.Errorf("Expected tenant-b text, got %q", retrieved.Text)
	}

	// Deleting one tenant's document leaves the other untouched
	if err := stores.Archive.SoftDeleteDocument(ctx, "tenant-a", "note:n1"); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}
	retrieved, err = stores.Archive.GetRecord(ctx, "tenant-b", "note:n1", 1)
	if err != nil {
		t.Fatalf("Failed to get record after delete: %v", err)
	}
	if retrieved.IsDeleted {
		t.Error("Expected tenant-b record to stay undeleted")
	}
}
