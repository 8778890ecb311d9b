// Package document stores uploaded registration evidence on local disk and
// serves it back through a configured base URL.
package document

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	domaindoc "github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/shared/config"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/utils"
)

const sniffLen = 512

var _ domaindoc.Gateway = (*LocalGateway)(nil)

type LocalGateway struct {
	dir      string
	baseURL  string
	maxBytes int64
	allowed  map[string]struct{}
	logger   logger.Interface
}

func NewLocalGateway(cfg config.DocumentsConfig, log logger.Interface) (*LocalGateway, error) {
	if cfg.StorageDir == "" {
		return nil, fmt.Errorf("documents storage_dir is required")
	}
	if err := os.MkdirAll(cfg.StorageDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create document storage dir: %w", err)
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &LocalGateway{
		dir:      cfg.StorageDir,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxBytes: cfg.MaxUploadBytes(),
		allowed:  allowed,
		logger:   log,
	}, nil
}

// StoreHandle writes file to disk and returns its handle. The content type is
// sniffed when the client did not send one.
func (g *LocalGateway) StoreHandle(ctx context.Context, ownerID uint, file domaindoc.File) (domaindoc.Handle, error) {
	if file.Body == nil {
		return domaindoc.Handle{}, errors.NewValidationError("file body is required")
	}
	if file.Size > g.maxBytes {
		return domaindoc.Handle{}, errors.NewValidationError(
			fmt.Sprintf("file exceeds the %d MB upload limit", g.maxBytes>>20))
	}

	body := bufio.NewReaderSize(file.Body, sniffLen)
	contentType := normaliseType(file.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := body.Peek(sniffLen)
		contentType = normaliseType(http.DetectContentType(head))
	}
	if len(g.allowed) > 0 {
		if _, ok := g.allowed[contentType]; !ok {
			return domaindoc.Handle{}, errors.NewValidationError("unsupported document type", contentType)
		}
	}

	id := uuid.NewString()
	name := filepath.Base(file.Name)
	ext := strings.ToLower(filepath.Ext(name))
	path := filepath.Join(g.dir, id+ext)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return domaindoc.Handle{}, fmt.Errorf("failed to create document file: %w", err)
	}
	written, copyErr := io.Copy(out, io.LimitReader(body, g.maxBytes+1))
	closeErr := out.Close()
	if copyErr == nil && written > g.maxBytes {
		copyErr = errors.NewValidationError(fmt.Sprintf("file exceeds the %d MB upload limit", g.maxBytes>>20))
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(path)
		if errors.IsAppError(copyErr) {
			return domaindoc.Handle{}, copyErr
		}
		return domaindoc.Handle{}, fmt.Errorf("failed to write document: %w", copyErr)
	}

	displayName := utils.SanitizeText(name)
	if displayName == "" || displayName == "." {
		displayName = id + ext
	}

	g.logger.Infow("document stored",
		"document_id", id,
		"uploaded_by", ownerID,
		"content_type", contentType,
		"size", written,
	)

	return domaindoc.Handle{
		ID:         id,
		URL:        g.baseURL + "/" + id + ext,
		Name:       displayName,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// DeleteHandle removes the stored file for id. Unknown ids are NotFound.
func (g *LocalGateway) DeleteHandle(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.NewNotFoundError("document not found", id)
	}
	matches, err := filepath.Glob(filepath.Join(g.dir, id+"*"))
	if err != nil {
		return fmt.Errorf("failed to look up document: %w", err)
	}
	if len(matches) == 0 {
		return errors.NewNotFoundError("document not found", id)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	return nil
}

// Dir is the directory the gateway writes to, for static serving.
func (g *LocalGateway) Dir() string {
	return g.dir
}

func normaliseType(ct string) string {
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return strings.ToLower(mediaType)
}
