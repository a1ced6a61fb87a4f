package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"sightdex/internal/fetch"
	"sightdex/internal/identify"
	"sightdex/internal/logging"
	"sightdex/internal/pokeapi"
	"sightdex/internal/render"
	"sightdex/internal/services"
	"sightdex/internal/version"
)

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	fileBytes, rawURL, err := s.readIdentifyInputs(r)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	data, err := s.identifier.ResolveQuery(r.Context(), fileBytes, rawURL)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	match, err := s.identifier.Identify(r.Context(), data)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	s.writeMarkdown(w, s.identifyReport(r.Context(), match))
}

// readIdentifyInputs pulls the query image from whichever input mode the
// request used: a multipart upload, a JSON body url, a form url, or a query
// parameter url.
func (s *Server) readIdentifyInputs(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var fileBytes []byte
	var rawURL string

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
				return nil, "", services.Wrap(services.ErrValidation, "api", "identify", "uploaded file must be an image", nil)
			}
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, "", services.Wrap(services.ErrValidation, "api", "identify", "read upload", err)
			}
			if len(data) == 0 {
				return nil, "", services.Wrap(services.ErrInvalidImage, "api", "identify", "empty file", nil)
			}
			fileBytes = data
		case errors.Is(err, http.ErrMissingFile):
		default:
			return nil, "", services.Wrap(services.ErrValidation, "api", "identify", "parse multipart form", err)
		}
		rawURL = r.FormValue("url")
	case mediaType == "application/json":
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, "", services.Wrap(services.ErrValidation, "api", "identify", "decode json body", err)
		}
		rawURL = body.URL
	}
	if fileBytes == nil && strings.TrimSpace(rawURL) == "" {
		rawURL = r.URL.Query().Get("url")
	}
	return fileBytes, rawURL, nil
}

// identifyReport enriches a match with catalog detail. Detail lookups are
// best effort; the identification already succeeded.
func (s *Server) identifyReport(ctx context.Context, match *identify.Match) string {
	logger := logging.WithContext(ctx, s.logger)

	creature, err := s.catalog.Creature(ctx, match.Name)
	if err != nil {
		logger.Warn("creature detail lookup failed",
			logging.String("name", match.Name), logging.Error(err))
	}
	var species *pokeapi.Species
	if creature != nil {
		species, err = s.catalog.Species(ctx, creature.ID)
		if err != nil {
			logger.Debug("species lookup failed",
				logging.String("name", match.Name), logging.Error(err))
		}
	}
	return render.IdentifyReport(creature, species, match.Classification, match.Similarity)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Question  string        `json:"question"`
	Messages  []chatMessage `json:"messages"`
	ImageURL  string        `json:"image_url"`
	ImageData string        `json:"image_data"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeServiceError(r.Context(), w, services.Wrap(services.ErrValidation, "api", "chat", "decode json body", err))
		return
	}

	if req.ImageURL != "" || req.ImageData != "" {
		data, err := s.chatImageBytes(r.Context(), req)
		if err != nil {
			s.writeServiceError(r.Context(), w, err)
			return
		}
		match, err := s.identifier.Identify(r.Context(), data)
		if err != nil {
			s.writeServiceError(r.Context(), w, err)
			return
		}
		s.writeMarkdown(w, s.identifyReport(r.Context(), match))
		return
	}

	question := req.Question
	if last := lastUserMessage(req.Messages); last != "" {
		question = last
	}
	if strings.TrimSpace(question) == "" {
		s.writeServiceError(r.Context(), w, services.Wrap(services.ErrValidation, "api", "chat", "provide a 'question' string or a 'messages' array with a user message", nil))
		return
	}

	md, err := s.answers.Respond(r.Context(), question)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	s.writeMarkdown(w, md)
}

// chatImageBytes resolves an attached image into raw bytes. Data URIs are
// accepted with or without their prefix.
func (s *Server) chatImageBytes(ctx context.Context, req chatRequest) ([]byte, error) {
	if req.ImageURL != "" && req.ImageData != "" {
		return nil, services.Wrap(services.ErrInputConflict, "api", "chat", "provide either image_url or image_data, not both", nil)
	}
	if req.ImageData != "" {
		payload := req.ImageData
		if strings.HasPrefix(payload, "data:") {
			if idx := strings.Index(payload, ","); idx >= 0 {
				payload = payload[idx+1:]
			}
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidImage, "api", "chat", "decode base64 image data", err)
		}
		if len(data) == 0 {
			return nil, services.Wrap(services.ErrInvalidImage, "api", "chat", "empty image data", nil)
		}
		return data, nil
	}
	return s.identifier.ResolveQuery(ctx, nil, req.ImageURL)
}

func lastUserMessage(messages []chatMessage) string {
	for idx := len(messages) - 1; idx >= 0; idx-- {
		if messages[idx].Role == "user" && strings.TrimSpace(messages[idx].Content) != "" {
			return messages[idx].Content
		}
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

type hashStatus struct {
	Method string `json:"method"`
	Size   int    `json:"size"`
}

type matchStatus struct {
	SimilarityThreshold float64 `json:"similarity_threshold"`
	TopK                int     `json:"top_k"`
	CatalogLimit        int     `json:"catalog_limit"`
	Concurrency         int     `json:"concurrency"`
}

type apiStatus struct {
	Version string      `json:"version"`
	Uptime  string      `json:"uptime"`
	Hash    hashStatus  `json:"hash"`
	Match   matchStatus `json:"match"`
	Cache   fetch.Stats `json:"cache"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, apiStatus{
		Version: version.String(),
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Hash: hashStatus{
			Method: s.cfg.Hash.Method,
			Size:   s.cfg.Hash.Size,
		},
		Match: matchStatus{
			SimilarityThreshold: s.cfg.Match.SimilarityThreshold,
			TopK:                s.cfg.Match.TopK,
			CatalogLimit:        s.cfg.Match.CatalogLimit,
			Concurrency:         s.cfg.Match.Concurrency,
		},
		Cache: s.fetcher.Stats(),
	})
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// writeServiceError maps a classified error onto its HTTP status and a
// stable JSON body.
func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(ctx, s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logging.Int("status", status), logging.Error(err))
	} else {
		logger.Debug("request rejected", logging.Int("status", status), logging.Error(err))
	}
	s.writeJSON(w, status, errorResponse{
		Error:  http.StatusText(status),
		Detail: services.UserMessage(err),
	})
}

func (s *Server) writeMarkdown(w http.ResponseWriter, md string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, md); err != nil {
		s.logger.Error("failed to write response", logging.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: http.StatusText(status), Detail: message})
}
