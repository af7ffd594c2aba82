// Package uploads stores product images on the local disk.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"storefront/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	// URLPrefix is where the upload directory is mounted by the HTTP server.
	URLPrefix = "/uploads"

	productImageDir = "product_images"
)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Stored describes a file written by Store.
type Stored struct {
	URL      string
	PublicID string
	Path     string
}

// Store writes uploaded images under root.
type Store struct {
	root    string
	maxSize int64
	now     func() time.Time
}

func NewStore(root string, maxSize int64) *Store {
	return &Store{root: root, maxSize: maxSize, now: time.Now}
}

// Root returns the directory served under URLPrefix.
func (s *Store) Root() string {
	return s.root
}

// MaxSize is the largest accepted file in bytes.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// SaveProductImage checks that file is an image within the size limit and
// writes it as <productID>-<unix millis><ext>.
func (s *Store) SaveProductImage(productID string, file *multipart.FileHeader) (*Stored, error) {
	if file == nil {
		return nil, apperr.Validation("Please upload an image file")
	}
	if file.Size > s.maxSize {
		return nil, apperr.Validation("Image must not exceed %d bytes", s.maxSize)
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperr.Internal(err, "failed to open upload %s", file.Filename)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, apperr.Internal(err, "failed to detect content type of %s", file.Filename)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, apperr.Validation("Only image files are allowed")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Internal(err, "failed to rewind upload %s", file.Filename)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !extPattern.MatchString(ext) {
		ext = mtype.Extension()
	}
	name := fmt.Sprintf("%s-%d%s", productID, s.now().UnixMilli(), ext)

	dir := filepath.Join(s.root, productImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Internal(err, "failed to create upload directory")
	}
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return nil, apperr.Internal(err, "failed to create %s", dst)
	}

	// The header size comes from the client; enforce the limit on the bytes too.
	written, err := io.Copy(out, io.LimitReader(src, s.maxSize+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, apperr.Internal(err, "failed to write %s", dst)
	}
	if written > s.maxSize {
		_ = os.Remove(dst)
		return nil, apperr.Validation("Image must not exceed %d bytes", s.maxSize)
	}

	log.Debug().Str("product_id", productID).Str("file", name).Str("mime", mtype.String()).Msg("image stored")
	return &Stored{
		URL:      path.Join(URLPrefix, productImageDir, name),
		PublicID: name,
		Path:     dst,
	}, nil
}

// RemoveProductImage deletes a stored image by its public id.
func (s *Store) RemoveProductImage(publicID string) error {
	if publicID == "" || filepath.Base(publicID) != publicID {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	if err := os.Remove(filepath.Join(s.root, productImageDir, publicID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image %s: %w", publicID, err)
	}
	return nil
}
