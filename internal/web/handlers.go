package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusops/gradefile/internal/logging"
	"github.com/campusops/gradefile/internal/status"
	"github.com/campusops/gradefile/internal/store"
	"github.com/campusops/gradefile/internal/tablefile"
)

// importResponse is the JSON body returned by a status-file import.
type importResponse struct {
	OK       bool   `json:"ok"`
	ImportID string `json:"import_id,omitempty"`
	Info     string `json:"info"`
	Updates  int    `json:"updates"`
	Applied  bool   `json:"applied"`
}

// handleHealth reports liveness and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// assignmentParam resolves the assignment URL parameter against the
// store, returning the engine's Assignment value.
func (s *Server) assignmentParam(r *http.Request) (status.Assignment, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "assignmentID"), 10, 64)
	if err != nil || id <= 0 {
		return status.Assignment{}, fmt.Errorf("invalid assignment id")
	}

	excID, err := s.store.AssignmentExercise(r.Context(), id)
	if err != nil {
		return status.Assignment{}, err
	}
	return status.Assignment{ID: id, ExerciseID: excID}, nil
}

// handleExport streams the assignment's status file as a download.
//
// The table is built into a buffer first: a build or serialize failure
// must produce an error response, not a truncated download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	assignment, err := s.assignmentParam(r)
	if err != nil {
		s.respondAssignmentError(w, err)
		return
	}

	eng := s.newEngine(r)
	eng.Init(r.Context(), assignment)

	var buf bytes.Buffer
	if err := eng.WriteTo(r.Context(), &buf); err != nil {
		logging.FromContext(r.Context()).Error("status file export failed",
			"assignment_id", assignment.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not generate status file")
		return
	}

	name := eng.ExportFileName()
	w.Header().Set("Content-Type", eng.Format().ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// handleImport accepts an edited status file, extracts updates and
// applies them. With ?dry_run=1 the updates are extracted and reported
// but nothing is written.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	assignment, err := s.assignmentParam(r)
	if err != nil {
		s.respondAssignmentError(w, err)
		return
	}

	if err := s.imports.acquire(r.Context()); err != nil {
		if errors.Is(err, errImportsBusy) {
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusRequestTimeout, "request cancelled")
		return
	}
	defer s.imports.release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Exchange.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.Exchange.MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	format, err := tablefile.FormatForPath(header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	importID := uuid.New().String()
	log := logging.FromContext(r.Context()).With(
		"import_id", importID, "assignment_id", assignment.ID, "file", header.Filename)

	eng := s.newEngine(r)
	eng.Init(r.Context(), assignment)

	if err := eng.LoadFrom(r.Context(), file, format); err != nil || eng.HasError() {
		log.Warn("status file rejected", "error", eng.Info())
		writeJSONStatus(w, http.StatusUnprocessableEntity,
			importResponse{OK: false, ImportID: importID, Info: eng.Info()})
		return
	}

	if len(eng.Updates()) == 0 {
		writeJSON(w, importResponse{OK: true, ImportID: importID, Info: eng.Info()})
		return
	}

	if r.URL.Query().Get("dry_run") == "1" {
		writeJSON(w, importResponse{
			OK:       true,
			ImportID: importID,
			Info:     eng.Info(),
			Updates:  len(eng.Updates()),
		})
		return
	}

	if err := eng.Apply(r.Context()); err != nil {
		log.Error("applying status updates failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not apply status updates")
		return
	}

	log.Info("status file imported", "updates", len(eng.Updates()))
	writeJSON(w, importResponse{
		OK:       true,
		ImportID: importID,
		Info:     eng.Info(),
		Updates:  len(eng.Updates()),
		Applied:  true,
	})
}

// memberStatusJSON mirrors a loaded member record.
type memberStatusJSON struct {
	UserID    int64  `json:"user_id"`
	Login     string `json:"login"`
	LastName  string `json:"lastname"`
	FirstName string `json:"firstname"`
	Status    string `json:"status"`
	Mark      string `json:"mark"`
	Notice    string `json:"notice"`
	Comment   string `json:"comment"`
}

// teamStatusJSON mirrors a loaded team record.
type teamStatusJSON struct {
	TeamID  int64   `json:"team_id"`
	Members []int64 `json:"members"`
	Status  string  `json:"status"`
	Mark    string  `json:"mark"`
	Notice  string  `json:"notice"`
	Comment string  `json:"comment"`
}

// handleStatus returns the authoritative grading dataset as JSON, in
// the same order and mode the export would use.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	assignment, err := s.assignmentParam(r)
	if err != nil {
		s.respondAssignmentError(w, err)
		return
	}

	eng := s.newEngine(r)
	eng.Init(r.Context(), assignment)

	if eng.Mode() == status.ModeTeam {
		teams := make([]teamStatusJSON, 0, len(eng.Teams()))
		for _, t := range eng.Teams() {
			teams = append(teams, teamStatusJSON{
				TeamID:  t.TeamID,
				Members: t.MemberUserIDs,
				Status:  string(t.Status),
				Mark:    t.Mark,
				Notice:  t.Notice,
				Comment: t.Comment,
			})
		}
		writeJSON(w, map[string]any{"mode": "team", "teams": teams})
		return
	}

	members := make([]memberStatusJSON, 0, len(eng.Members()))
	for _, m := range eng.Members() {
		members = append(members, memberStatusJSON{
			UserID:    m.UserID,
			Login:     m.Login,
			LastName:  m.LastName,
			FirstName: m.FirstName,
			Status:    string(m.Status),
			Mark:      m.Mark,
			Notice:    m.Notice,
			Comment:   m.Comment,
		})
	}
	writeJSON(w, map[string]any{"mode": "member", "members": members})
}

// respondAssignmentError maps assignment resolution failures to status codes.
func (s *Server) respondAssignmentError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNoRecord) {
		writeError(w, http.StatusNotFound, "unknown assignment")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
