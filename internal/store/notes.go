// Package store is the single data-access surface for tenant data. Every
// query carries the tenant predicate; rows that exist but belong to another
// tenant (or, for writes, another owner) surface as NotFound so foreign
// callers cannot confirm their existence.
package store

import (
	"context"
	"errors"
	"strings"

	"notes-service/internal/apperr"
	"notes-service/internal/auth"
	"notes-service/internal/model"
	"notes-service/internal/quota"

	"gorm.io/gorm"
)

// NoteStore routes all note reads and writes, scoped to the caller's
// tenant. Tenant and owner columns are stamped from the resolved identity,
// never from client-supplied fields.
type NoteStore struct {
	db    *gorm.DB
	quota *quota.Enforcer
}

func NewNoteStore(db *gorm.DB, enforcer *quota.Enforcer) *NoteStore {
	return &NoteStore{db: db, quota: enforcer}
}

// List returns the tenant's notes, newest first, with the author's email
// joined in.
func (s *NoteStore) List(ctx context.Context, tenantID uint) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.WithContext(ctx).
		Model(&model.Note{}).
		Select("notes.*, users.email AS author_email").
		Joins("JOIN users ON users.id = notes.user_id").
		Where("notes.tenant_id = ?", tenantID).
		Order("notes.created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Transient, "failed to list notes", err)
	}
	return notes, nil
}

// Get returns one note within the tenant. A note from another tenant is
// indistinguishable from a missing one.
func (s *NoteStore) Get(ctx context.Context, tenantID, noteID uint) (*model.Note, error) {
	var note model.Note
	err := s.db.WithContext(ctx).
		Model(&model.Note{}).
		Select("notes.*, users.email AS author_email").
		Joins("JOIN users ON users.id = notes.user_id").
		Where("notes.id = ? AND notes.tenant_id = ?", noteID, tenantID).
		First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "note not found")
		}
		return nil, apperr.Wrap(apperr.Transient, "failed to load note", err)
	}
	return &note, nil
}

// Create inserts a note for the identity's tenant. Quota admission and the
// insert run in one transaction so the free-plan limit holds under
// concurrent creates (the enforcer locks the tenant row first).
func (s *NoteStore) Create(ctx context.Context, ident *auth.Identity, title, content string) (*model.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.New(apperr.Validation, "title is required")
	}

	note := model.Note{
		TenantID: ident.TenantID,
		UserID:   ident.UserID,
		Title:    title,
		Content:  content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quota.AdmitCreate(tx, ident.TenantID); err != nil {
			return err
		}
		if err := tx.Create(&note).Error; err != nil {
			return apperr.Wrap(apperr.Transient, "failed to create note", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	note.AuthorEmail = ident.Email
	return &note, nil
}

// Update rewrites title and content of a note the identity owns. The
// policy is consulted on the tenant-scoped row before the write; the owner
// and tenant predicates are still part of the UPDATE itself, so zero
// affected rows means missing, foreign, or not owned, all reported as
// NotFound.
func (s *NoteStore) Update(ctx context.Context, ident *auth.Identity, noteID uint, title, content string) (*model.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.New(apperr.Validation, "title is required")
	}

	note, err := s.Get(ctx, ident.TenantID, noteID)
	if err != nil {
		return nil, err
	}
	if !auth.CanMutateNote(ident, note) {
		return nil, apperr.New(apperr.NotFound, "note not found")
	}

	res := s.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ? AND tenant_id = ? AND user_id = ?", noteID, ident.TenantID, ident.UserID).
		Updates(map[string]interface{}{
			"title":   title,
			"content": content,
		})
	if res.Error != nil {
		return nil, apperr.Wrap(apperr.Transient, "failed to update note", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NotFound, "note not found")
	}

	return s.Get(ctx, ident.TenantID, noteID)
}

// Delete removes a note the identity owns, under the same policy check and
// predicates as Update.
func (s *NoteStore) Delete(ctx context.Context, ident *auth.Identity, noteID uint) error {
	note, err := s.Get(ctx, ident.TenantID, noteID)
	if err != nil {
		return err
	}
	if !auth.CanMutateNote(ident, note) {
		return apperr.New(apperr.NotFound, "note not found")
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND user_id = ?", noteID, ident.TenantID, ident.UserID).
		Delete(&model.Note{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Transient, "failed to delete note", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "note not found")
	}
	return nil
}
