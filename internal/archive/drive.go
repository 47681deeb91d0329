package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveStore archives snapshots in Google Drive under a fixed root folder.
// Path segments map to nested folders, so `Alta/2026-01-15/Alta_...jpg`
// lands in a per-resort, per-date folder, created on demand.
type DriveStore struct {
	svc    *drive.Service
	rootID string

	mu      sync.Mutex
	folders map[string]string // "parentID/name" -> folder id
}

// NewDriveStore builds a Drive-backed archive from service-account
// credentials JSON and the id of the root folder shared with that account.
func NewDriveStore(ctx context.Context, credentialsJSON []byte, rootFolderID string) (*DriveStore, error) {
	if rootFolderID == "" {
		return nil, fmt.Errorf("drive root folder id is required")
	}

	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}

	return &DriveStore{
		svc:     svc,
		rootID:  rootFolderID,
		folders: make(map[string]string),
	}, nil
}

// escapeQuery escapes single quotes for Drive query strings.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

// folderID returns the id of the named folder under parentID, creating it
// when create is true. Resolved ids are cached for the process lifetime;
// folders are never deleted by this system.
func (s *DriveStore) folderID(ctx context.Context, parentID, name string, create bool) (string, error) {
	cacheKey := parentID + "/" + name

	s.mu.Lock()
	if id, ok := s.folders[cacheKey]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	query := fmt.Sprintf(
		"mimeType='%s' and trashed=false and name='%s' and '%s' in parents",
		folderMimeType, escapeQuery(name), escapeQuery(parentID),
	)
	list, err := s.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	var id string
	if len(list.Files) > 0 {
		id = list.Files[0].Id
	} else {
		if !create {
			return "", ErrNotFound
		}
		folder, err := s.svc.Files.Create(&drive.File{
			Name:     name,
			Parents:  []string{parentID},
			MimeType: folderMimeType,
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", err
		}
		id = folder.Id
	}

	s.mu.Lock()
	s.folders[cacheKey] = id
	s.mu.Unlock()
	return id, nil
}

// resolveFolder walks the given path segments below the root, optionally
// creating missing folders.
func (s *DriveStore) resolveFolder(ctx context.Context, segments []string, create bool) (string, error) {
	parentID := s.rootID
	for _, seg := range segments {
		id, err := s.folderID(ctx, parentID, seg, create)
		if err != nil {
			return "", err
		}
		parentID = id
	}
	return parentID, nil
}

func (s *DriveStore) Upload(ctx context.Context, path string, data []byte) error {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return fmt.Errorf("empty archive path")
	}
	name := segments[len(segments)-1]

	folderID, err := s.resolveFolder(ctx, segments[:len(segments)-1], true)
	if err != nil {
		return err
	}

	// Overwrite an existing file of the same name so minute-granularity
	// collisions stay last-write-wins instead of accumulating duplicates.
	query := fmt.Sprintf(
		"mimeType!='%s' and trashed=false and name='%s' and '%s' in parents",
		folderMimeType, escapeQuery(name), escapeQuery(folderID),
	)
	list, err := s.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return err
	}

	if len(list.Files) > 0 {
		_, err = s.svc.Files.Update(list.Files[0].Id, &drive.File{}).
			Media(bytes.NewReader(data)).Context(ctx).Do()
		return err
	}

	_, err = s.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{folderID},
	}).Media(bytes.NewReader(data)).Context(ctx).Do()
	return err
}

func (s *DriveStore) List(ctx context.Context, prefix string) ([]Object, error) {
	segments := strings.Split(strings.Trim(prefix, "/"), "/")
	folderID, err := s.resolveFolder(ctx, segments, false)
	if err != nil {
		return nil, err
	}

	objects, err := s.listFolder(ctx, folderID, strings.Join(segments, "/"))
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, ErrNotFound
	}
	return objects, nil
}

// listFolder collects all files below folderID, recursing into subfolders.
// The tree is shallow (resort/date/file), so recursion depth is bounded.
func (s *DriveStore) listFolder(ctx context.Context, folderID, prefix string) ([]Object, error) {
	query := fmt.Sprintf("trashed=false and '%s' in parents", escapeQuery(folderID))

	var objects []Object
	err := s.svc.Files.List().Q(query).
		Fields("nextPageToken, files(id, name, mimeType, modifiedTime)").
		PageSize(1000).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				if f.MimeType == folderMimeType {
					children, err := s.listFolder(ctx, f.Id, prefix+"/"+f.Name)
					if err != nil {
						return err
					}
					objects = append(objects, children...)
					continue
				}
				modified, err := time.Parse(time.RFC3339, f.ModifiedTime)
				if err != nil {
					modified = time.Time{}
				}
				objects = append(objects, Object{
					Path:     prefix + "/" + f.Name,
					Modified: modified,
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (s *DriveStore) Download(ctx context.Context, path string) ([]byte, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 1 {
		return nil, fmt.Errorf("empty archive path")
	}
	name := segments[len(segments)-1]

	folderID, err := s.resolveFolder(ctx, segments[:len(segments)-1], false)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"trashed=false and name='%s' and '%s' in parents",
		escapeQuery(name), escapeQuery(folderID),
	)
	list, err := s.svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, ErrNotFound
	}

	resp, err := s.svc.Files.Get(list.Files[0].Id).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
