package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/examdesk/internal/portal"
	"github.com/mind-engage/examdesk/internal/storage"
)

const maxMaterialSize = 32 << 20

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// POST /admin/exams/{examID}/material   (multipart, field "file")
// Stores the file and points the exam's downloadLink at it.
func UploadMaterialHandler(svc *portal.Service, bs storage.BlobStore, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		if _, err := svc.Exam(r.Context(), examID); err != nil {
			respondError(w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxMaterialSize)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			respondError(w, badRequest("file required"))
			return
		}
		defer f.Close()

		name := unsafeName.ReplaceAllString(filepath.Base(hdr.Filename), "_")
		if name == "" || name == "." {
			name = "material.bin"
		}
		ctype := hdr.Header.Get("Content-Type")
		if ctype == "" {
			ctype = mime.TypeByExtension(path.Ext(name))
		}
		key, err := bs.Put(r.Context(), "exams/"+examID+"/"+uuid.NewString()+"-"+name, f, hdr.Size, ctype)
		if err != nil {
			respondError(w, err)
			return
		}
		e, err := svc.AttachMaterial(r.Context(), examID, strings.TrimSuffix(publicURL, "/")+"/materials/"+key)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"key": key, "exam": e})
	}
}

// GET /materials/*
// Redirects to a signed URL when the store can sign, otherwise streams.
func MaterialHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := storage.CleanKey(chi.URLParam(r, "*"))
		if key == "" {
			http.NotFound(w, r)
			return
		}
		if u, err := bs.SignedURL(r.Context(), key, 15*time.Minute); err == nil && u != "" {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, errorBody{Error: "material not found"})
			return
		}
		if err != nil {
			respondError(w, err)
			return
		}
		defer rc.Close()
		ctype := mime.TypeByExtension(path.Ext(key))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
		_, _ = io.Copy(w, rc)
	}
}
