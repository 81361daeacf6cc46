// Package storage turns uploaded bytes into attachment content handles and back.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
)

const blobPrefix = "blob:"

// Attachments encodes uploads as data URIs, or as blob references when a
// BlobStore is configured.
type Attachments struct {
	blobs BlobStore
}

// NewAttachments accepts a nil BlobStore.
func NewAttachments(blobs BlobStore) *Attachments {
	return &Attachments{blobs: blobs}
}

// Ingest stores one uploaded file and returns the attachment that references it.
func (a *Attachments) Ingest(ctx context.Context, name, contentType string, data []byte) (models.Attachment, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return models.Attachment{}, models.NewValidationError("file name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if a.blobs == nil {
		return models.Attachment{Name: name, ContentHandle: EncodeDataURI(contentType, data)}, nil
	}

	key := "attachments/" + uuid.NewString() + "/" + name
	if err := a.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return models.Attachment{}, models.NewStoreError("upload "+name, err)
	}
	return models.Attachment{Name: name, ContentHandle: blobPrefix + key}, nil
}

// Open resolves an attachment's content. The caller closes the reader.
func (a *Attachments) Open(ctx context.Context, att models.Attachment) (io.ReadCloser, string, error) {
	if key, ok := strings.CutPrefix(att.ContentHandle, blobPrefix); ok {
		if a.blobs == nil {
			return nil, "", models.NewStoreError("open "+att.Name, fmt.Errorf("no blob store configured"))
		}
		body, contentType, err := a.blobs.Get(ctx, key)
		if err != nil {
			return nil, "", models.NewStoreError("open "+att.Name, err)
		}
		return body, contentType, nil
	}

	mediaType, data, err := DecodeDataURI(att.ContentHandle)
	if err != nil {
		return nil, "", models.NewValidationError("file " + att.Name + " has unreadable content")
	}
	return io.NopCloser(bytes.NewReader(data)), mediaType, nil
}

// Discard removes the stored content of attachments that were ingested but
// never committed to a record. Inline handles hold nothing to remove.
func (a *Attachments) Discard(ctx context.Context, atts []models.Attachment) {
	if a.blobs == nil {
		return
	}
	for _, att := range atts {
		key, ok := strings.CutPrefix(att.ContentHandle, blobPrefix)
		if !ok {
			continue
		}
		if err := a.blobs.Delete(ctx, key); err != nil {
			logger.Error("attachment_discard_failed", err, map[string]interface{}{
				"object_name": key,
			})
		}
	}
}
