package catalog

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/zombor/gis-catalog/internal/scanning"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// scanRequest is the body of POST /api/scans. Recursive defaults to true
// when omitted.
type scanRequest struct {
	Root      string `json:"root"`
	Recursive *bool  `json:"recursive"`
}

// scanResponse pairs the run summary with the records it produced
type scanResponse struct {
	Run     *ScanRun      `json:"run"`
	Count   int           `json:"count"`
	Records []*ScanRecord `json:"records"`
}

// handleRunScan triggers a scan of a root directory
func (s *Server) handleRunScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Root == "" {
		corsError(w, "root is required", http.StatusBadRequest)
		return
	}
	recursive := true
	if req.Recursive != nil {
		recursive = *req.Recursive
	}

	run, records, err := s.service.RunScan(req.Root, recursive)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, scanning.ErrNotDirectory) {
			corsError(w, "Invalid root directory", http.StatusBadRequest)
			return
		}
		slog.Error("Error running scan", "root", req.Root, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, scanResponse{Run: run, Count: len(records), Records: records})
}

// handleListRuns returns all scan runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns()
	if err != nil {
		slog.Error("Error listing scan runs", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun returns one scan run by ID
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.PathValue("id"))
	if err != nil {
		corsError(w, "Scan run not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, run)
}

// handleListRecords returns all records, optionally filtered by type
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListRecords(r.URL.Query().Get("type"))
	if err != nil {
		slog.Error("Error listing records", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, records)
}

// handleGetRecord returns one record by ID
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetRecord(r.PathValue("id"))
	if err != nil {
		corsError(w, "Record not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, record)
}

// handleDeleteRecord removes a record from the catalog
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecord(r.PathValue("id")); err != nil {
		corsError(w, "Record not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// organizeRequest is the body of POST /api/organize
type organizeRequest struct {
	Target string `json:"target"`
}

// handleOrganize moves cataloged files into category directories
func (s *Server) handleOrganize(w http.ResponseWriter, r *http.Request) {
	var req organizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Target == "" {
		corsError(w, "target is required", http.StatusBadRequest)
		return
	}

	result, err := s.service.Organize(req.Target)
	if err != nil {
		slog.Error("Error organizing files", "target", req.Target, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, result)
}
