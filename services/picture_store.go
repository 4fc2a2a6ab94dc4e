package services

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tandem-server/utils/errors"
)

const PictureURLPrefix = "/uploads/profilePictures/"

var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DiskPictureStore writes pictures under <root>/profilePictures and returns
// references of the form /uploads/profilePictures/<file>.
type DiskPictureStore struct {
	root     string
	dir      string
	maxBytes int64
}

func NewDiskPictureStore(root string, maxBytes int64) (*DiskPictureStore, error) {
	dir := filepath.Join(root, "profilePictures")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskPictureStore{root: root, dir: dir, maxBytes: maxBytes}, nil
}

// Root is the directory served under /uploads/.
func (s *DiskPictureStore) Root() string {
	return s.root
}

func (s *DiskPictureStore) Save(content io.Reader) (string, error) {
	br := bufio.NewReaderSize(content, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", errors.Wrap(err, "UPLOAD_ERROR", "Failed to read upload", http.StatusBadRequest)
	}
	if len(head) == 0 {
		return "", errors.ErrNoFile
	}
	ext, ok := pictureExtensions[http.DetectContentType(head)]
	if !ok {
		return "", errors.ErrUnsupportedFile
	}

	name := uuid.NewString() + ext
	full := filepath.Join(s.dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Internal(err)
	}
	n, copyErr := io.Copy(f, io.LimitReader(br, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(full)
		return "", errors.Wrap(copyErr, "UPLOAD_ERROR", "Failed to read upload", http.StatusBadRequest)
	case n > s.maxBytes:
		_ = os.Remove(full)
		return "", errors.ErrFileTooLarge
	case closeErr != nil:
		_ = os.Remove(full)
		return "", errors.Internal(closeErr)
	}
	return PictureURLPrefix + name, nil
}

func (s *DiskPictureStore) Remove(ref string) error {
	if !strings.HasPrefix(ref, PictureURLPrefix) {
		return fmt.Errorf("not a stored picture: %q", ref)
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == ".." {
		return fmt.Errorf("not a stored picture: %q", ref)
	}
	return os.Remove(filepath.Join(s.dir, name))
}
