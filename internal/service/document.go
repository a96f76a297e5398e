package service

import (
	"bytes"
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/escrow-ledger/internal/pkg/apperror"
)

type DocumentStore interface {
	Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
	Open(ctx context.Context, relativePath string) (io.ReadCloser, error)
}

// DocumentService хранит PDF-документы счетов.
type DocumentService struct {
	storage DocumentStore
}

func NewDocumentService(storage DocumentStore) *DocumentService {
	return &DocumentService{storage: storage}
}

// SaveInvoicePDF проверяет магические байты и сохраняет документ счёта.
// Расширению файла не доверяем, тип определяется по содержимому.
func (s *DocumentService) SaveInvoicePDF(ctx context.Context, userID uuid.UUID, originalName string, data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.Extension != "pdf" {
		return "", apperror.New(apperror.ErrCodeValidation, "документ счёта должен быть PDF")
	}

	ref, _, err := s.storage.Save(ctx, userID, originalName, bytes.NewReader(data))
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить документ")
	}
	return ref, nil
}

// OpenDocument открывает документ по ссылке из счёта.
func (s *DocumentService) OpenDocument(ctx context.Context, ref string) (io.ReadCloser, error) {
	return s.storage.Open(ctx, ref)
}
