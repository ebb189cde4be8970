// Package drive stores finalized briefs in Google Drive.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tropica/briefbuddy/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const fileFields = "id,name,mimeType,webViewLink"

var ErrMissingCredentials = errors.New("drive credentials are incomplete")

// Credentials is an OAuth2 client plus a long-lived refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RefreshToken string
}

func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return nil, ErrMissingCredentials
	}
	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{gdrive.DriveScope},
		Endpoint:     google.Endpoint,
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}), nil
}

type Store struct {
	files *gdrive.Service
}

var _ storage.Store = (*Store)(nil)

// New builds a Store authenticated with creds. Extra options are appended
// after the token source.
func New(ctx context.Context, creds Credentials, opts ...option.ClientOption) (*Store, error) {
	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Store, error) {
	srv, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Store{files: srv}, nil
}

func (s *Store) EnsureFolder(ctx context.Context, name, parentID string) (*storage.Object, error) {
	safe := storage.SanitizeName(name)
	found, err := s.find(ctx, safe, parentID, true)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return toObject(found), nil
	}
	slog.Debug("Creating drive folder", "name", safe, "parent", parentID)
	created, err := s.files.Files.Create(&gdrive.File{
		Name:     safe,
		Parents:  parents(parentID),
		MimeType: storage.FolderMimeType,
	}).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", safe, err)
	}
	return toObject(created), nil
}

func (s *Store) PutFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (*storage.Object, error) {
	safe := storage.SanitizeName(name)
	found, err := s.find(ctx, safe, folderID, false)
	if err != nil {
		return nil, err
	}
	if found != nil {
		slog.Debug("Replacing drive file", "name", safe, "id", found.Id)
		updated, uErr := s.files.Files.Update(found.Id, &gdrive.File{MimeType: mimeType}).
			Media(body, googleapi.ContentType(mimeType)).
			Fields(fileFields).Context(ctx).Do()
		if uErr != nil {
			return nil, fmt.Errorf("failed to update file %q: %w", safe, uErr)
		}
		return toObject(updated), nil
	}
	created, err := s.files.Files.Create(&gdrive.File{
		Name:     safe,
		Parents:  parents(folderID),
		MimeType: mimeType,
	}).Media(body, googleapi.ContentType(mimeType)).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload file %q: %w", safe, err)
	}
	return toObject(created), nil
}

func (s *Store) ShareByLink(ctx context.Context, id string) error {
	_, err := s.files.Permissions.Create(id, &gdrive.Permission{Role: "reader", Type: "anyone"}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			return fmt.Errorf("share %s: %w", id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to share %s: %w", id, err)
	}
	return nil
}

func (s *Store) find(ctx context.Context, name, parentID string, folder bool) (*gdrive.File, error) {
	list, err := s.files.Files.List().
		Q(query(name, parentID, folder)).
		Fields("files(" + fileFields + ")").
		PageSize(1).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return list.Files[0], nil
}

func query(name, parentID string, folder bool) string {
	clauses := []string{fmt.Sprintf("name='%s'", escape(name))}
	if folder {
		clauses = append(clauses, fmt.Sprintf("mimeType='%s'", storage.FolderMimeType))
	} else {
		clauses = append(clauses, fmt.Sprintf("mimeType!='%s'", storage.FolderMimeType))
	}
	if parentID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", escape(parentID)))
	}
	clauses = append(clauses, "trashed=false")
	return strings.Join(clauses, " and ")
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escape(s string) string {
	return queryEscaper.Replace(s)
}

func parents(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

func toObject(f *gdrive.File) *storage.Object {
	return &storage.Object{
		ID:       f.Id,
		Name:     f.Name,
		Link:     f.WebViewLink,
		MimeType: f.MimeType,
	}
}
