package http

import (
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/pathwise-lms/pathwise/internal/course"
	"github.com/pathwise-lms/pathwise/internal/progress"
	"github.com/pathwise-lms/pathwise/internal/rbac"
	"github.com/pathwise-lms/pathwise/internal/storage"
)

// MountMaterials wires the study-material surface under the given
// router. Uploads attach a blob to a content item; downloads stream it
// back.
func MountMaterials(r chi.Router, bs storage.BlobStore, courses course.Store, prog *progress.Service) {
	// POST /materials/{contentID}  (multipart, field "file")
	r.With(rbac.Require("content:create")).Post("/{contentID}", func(w http.ResponseWriter, r *http.Request) {
		contentID := chi.URLParam(r, "contentID")
		ci, err := courses.GetContent(r.Context(), contentID)
		if err != nil {
			writeErr(w, err)
			return
		}

		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := path.Base(hdr.Filename)
		if name == "" || name == "." || name == "/" {
			name = "material.bin"
		}
		key := "materials/" + ci.CourseID + "/" + contentID + "/" + name
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := courses.SetMaterialKey(r.Context(), contentID, key); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	})

	// GET /materials/{contentID} streams the attached blob.
	r.With(rbac.Require("content:view")).Get("/{contentID}", func(w http.ResponseWriter, r *http.Request) {
		ci, err := courses.GetContent(r.Context(), chi.URLParam(r, "contentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := studentLockCheck(r, prog, ci); err != nil {
			writeErr(w, err)
			return
		}
		if ci.MaterialKey == "" {
			http.Error(w, "no material", http.StatusNotFound)
			return
		}
		rc, err := bs.Get(ci.MaterialKey)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
