package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

const (
	// FilesField — поле формы с новыми файлами.
	FilesField = "documents"
	// KeepField — поле формы с ID уже приложенных документов, которые нужно оставить.
	KeepField = "keep"

	multipartMemory = 32 << 20
	// запас на заголовки и служебные поля формы сверх лимита на файлы
	formOverhead = 1 << 20
)

// DocumentsHandler принимает документы клиента формой multipart/form-data.
// Документы из черновика, чьи ID переданы в keep, сохраняются вместе
// с адресами уже выполненных загрузок.
type DocumentsHandler struct {
	base
	maxBody int64
}

// NewDocuments создаёт DocumentsHandler. maxTotalSize — лимит на все файлы.
func NewDocuments(log *slog.Logger, sessions Sessions, maxTotalSize int64) *DocumentsHandler {
	return &DocumentsHandler{base: newBase(log, sessions), maxBody: maxTotalSize + formOverhead}
}

func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Documents"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Info("documents too large", slog.Int64("limit", tooLarge.Limit))
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.FieldsError("validation failed", map[string]string{
				"documents_size": "documents exceed the maximum total size",
			}))
			return
		}
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("failed to remove multipart temp files", sl.Err(err))
		}
	}()

	docs := keptDocuments(wf.Draft().Documents, r.MultipartForm.Value[KeepField])
	for _, fh := range r.MultipartForm.File[FilesField] {
		doc, err := readDocument(fh)
		if err != nil {
			log.Error("failed to read uploaded file", slog.String("file", fh.Filename), sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to read uploaded file"))
			return
		}
		docs = append(docs, doc)
	}

	if err := wf.SubmitDocuments(docs); err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("documents accepted", slog.Int("count", len(docs)))
	h.respond(w, r, wf)
}

func keptDocuments(current []models.Document, keep []string) []models.Document {
	if len(keep) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		ids[id] = struct{}{}
	}
	var out []models.Document
	for _, d := range current {
		if _, ok := ids[d.ID]; ok {
			out = append(out, d)
		}
	}
	return out
}

func readDocument(fh *multipart.FileHeader) (models.Document, error) {
	const op = "session.readDocument"

	f, err := fh.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.Document{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     content,
	}, nil
}
