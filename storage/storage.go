// Package storage is the file store finalized briefs are written to.
package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
)

const (
	FolderMimeType   = "application/vnd.google-apps.folder"
	MarkdownMimeType = "text/markdown"
	maxNameLength    = 160
)

var ErrNotFound = errors.New("storage object not found")

type Object struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	MimeType string `json:"mimeType,omitempty"`
}

// Store upserts by natural key: a sanitized name within a parent folder.
// Lookups are not transactional, so two concurrent writers may still create duplicates.
type Store interface {
	// EnsureFolder returns the folder called name under parentID, creating it if absent.
	EnsureFolder(ctx context.Context, name, parentID string) (*Object, error)
	// PutFile creates or replaces the file called name inside folderID.
	PutFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (*Object, error)
	// ShareByLink makes id readable by anyone holding its link.
	ShareByLink(ctx context.Context, id string) error
}

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SanitizeName replaces characters that are invalid in file names, collapses
// whitespace and caps the length.
func SanitizeName(name string) string {
	name = unsafeChars.ReplaceAllString(name, " ")
	name = strings.Join(strings.Fields(name), " ")
	if r := []rune(name); len(r) > maxNameLength {
		name = strings.TrimSpace(string(r[:maxNameLength]))
	}
	return name
}
