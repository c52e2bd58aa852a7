package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var errUploadTooLarge = errors.New("upload too large")

// upload is the text of a multipart request: the "file" part when present,
// otherwise the "text" field.
type upload struct {
	Text  string
	Title string
}

// readUpload parses a multipart body. A request that is not multipart yields
// an empty upload.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.MaxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return upload{}, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, errUploadTooLarge
		}
		return upload{}, fmt.Errorf("parsing form: %w", err)
	}

	up := upload{
		Title: strings.TrimSpace(r.FormValue("title")),
		Text:  cleanText([]byte(r.FormValue("text"))),
	}

	f, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return up, nil
	}
	if err != nil {
		return upload{}, fmt.Errorf("reading file: %w", err)
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(f)
	if err != nil {
		return upload{}, fmt.Errorf("reading file: %w", err)
	}
	if text := cleanText(b); text != "" {
		up.Text = text
	}
	return up, nil
}

// cleanText drops invalid UTF-8 and a leading byte order mark, then
// normalises to NFC.
func cleanText(b []byte) string {
	s := strings.ToValidUTF8(string(b), "")
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimSpace(norm.NFC.String(s))
}

func (s *Server) uploadFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, errUploadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", s.MaxUploadBytes))
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
