package bizapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/sanitizer"
)

const (
	// MaxReceiptSize bounds a single receipt upload.
	MaxReceiptSize = 10 << 20

	receiptField = "receipts"
	sniffLen     = 512
)

var imageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Receipt is an image attached to a transaction.
type Receipt struct {
	Name        string
	ContentType string
	content     io.Reader
}

// NewReceipt wraps r as a receipt. The content type is detected from the
// first bytes rather than trusted from the name, and non-images are rejected.
func NewReceipt(name string, r io.Reader) (Receipt, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Receipt{}, errors.Join(ErrReceiptRead, err)
	}
	head = head[:n]

	ct := http.DetectContentType(head)
	if !imageMIMETypes[ct] {
		return Receipt{}, fmt.Errorf("%w: detected %s", ErrReceiptNotImage, ct)
	}

	return Receipt{
		Name:        sanitizer.Filename(name, "receipt"),
		ContentType: ct,
		content:     io.MultiReader(bytes.NewReader(head), r),
	}, nil
}

// OpenReceipt reads the image at path into memory.
func OpenReceipt(path string) (Receipt, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Receipt{}, errors.Join(ErrReceiptRead, err)
	}
	if info.Size() > MaxReceiptSize {
		return Receipt{}, fmt.Errorf("%w: %d bytes", ErrReceiptTooLarge, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Receipt{}, errors.Join(ErrReceiptRead, err)
	}
	return NewReceipt(filepath.Base(path), bytes.NewReader(data))
}

func (r Receipt) part() apiclient.FilePart {
	return apiclient.FilePart{
		Field:       receiptField,
		Filename:    r.Name,
		ContentType: r.ContentType,
		Content:     r.content,
	}
}
