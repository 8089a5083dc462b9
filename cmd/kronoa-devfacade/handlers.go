// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/session"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStorageRead streams the raw bytes stored at ?path=, with no
// edition resolution: it is a passthrough onto the backend.
func (s *server) handleStorageRead(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path query parameter")
		return
	}
	data, err := s.backend.Read(r.Context(), path)
	if kstore.ErrNotFound.Has(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *server) handleStorageExists(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path query parameter")
		return
	}
	exists, err := s.backend.Exists(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *server) handleStorageList(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	delimiter := r.URL.Query().Get("delimiter")
	keys, err := s.backend.List(r.Context(), prefix, delimiter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

// handleLabelRead resolves {path} through the edition named by {label},
// which may be "staging", "production", or a checked-out working label.
// Any other {label}, a numeric edition id included, is looked up as a
// working label.
func (s *server) handleLabelRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	label, path := vars["label"], vars["path"]

	sess, err := s.openSession(r, label)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	data, err := sess.Read(r.Context(), path)
	if kstore.ErrNotFound.Has(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *server) openSession(r *http.Request, label string) (*session.Session, error) {
	switch label {
	case "staging", "production":
		source, err := edition.ParseSource(label)
		if err != nil {
			return nil, err
		}
		return session.Open(r.Context(), s.backend, s.editions, s.publish, source)
	default:
		return session.Resume(r.Context(), s.backend, s.editions, s.publish, label)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
