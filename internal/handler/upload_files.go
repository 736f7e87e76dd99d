package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sefazor/eventphotos-backend/internal/service"
)

// Hem "files[]" hem "files" alan adları kabul edilir
var fileFieldNames = []string{"files[]", "files"}

func formFiles(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	for _, name := range fileFieldNames {
		if files := form.File[name]; len(files) > 0 {
			return files
		}
	}
	return nil
}

func formValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// toUploadFiles uses the part's Content-Type and sniffs the content when the
// client sent none or a generic one.
func toUploadFiles(headers []*multipart.FileHeader) ([]service.UploadFile, error) {
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		mimeType, err := detectMimeType(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, service.UploadFile{
			Name:     fh.Filename,
			MimeType: mimeType,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files, nil
}

func detectMimeType(fh *multipart.FileHeader) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(fh.Header.Get("Content-Type"), ";", 2)[0]))
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return strings.SplitN(mt.String(), ";", 2)[0], nil
}
