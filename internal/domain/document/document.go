// Package document defines the handle the workflow stores for uploaded
// files. The bytes live behind the gateway; the core only keeps handles.
package document

import (
	"context"
	"io"
	"time"
)

type Handle struct {
	ID         string    `json:"id" validate:"required,max=64"`
	URL        string    `json:"url" validate:"required,url"`
	Name       string    `json:"name" validate:"required,max=255"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// File is an upload on its way to the gateway.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Gateway stores uploaded files and hands back stable handles.
type Gateway interface {
	StoreHandle(ctx context.Context, ownerID uint, file File) (Handle, error)
	DeleteHandle(ctx context.Context, id string) error
}
