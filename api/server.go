// Package api exposes the HTTP surface: folder/page management, tabbed chat,
// PDF ingestion, and the embedded web UI.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Yeseung0610/docs-fairy/chat"
	"github.com/Yeseung0610/docs-fairy/docs"
	"github.com/Yeseung0610/docs-fairy/session"
	"github.com/Yeseung0610/docs-fairy/store"
)

const (
	sessionCookie = "session_id"
	maxUploadSize = 32 << 20
)

// Server routes every user action to the document and chat managers, keyed by
// a per-browser session cookie.
type Server struct {
	docs     *docs.Manager
	chat     *chat.Manager
	sessions *session.Registry
	logger   *log.Logger
	handler  http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type addFolderRequest struct {
	Name string `json:"name"`
}

type addPageRequest struct {
	Name     string `json:"name"`
	FolderID int64  `json:"folderId"`
	Date     string `json:"date"`
}

type updateTextRequest struct {
	Content string `json:"content"`
	Date    string `json:"date"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type folderNode struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Expanded bool       `json:"expanded"`
	Pages    []pageNode `json:"pages"`
}

type pageNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type pageResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	FolderID   int64  `json:"folderId"`
	FolderName string `json:"folderName"`
	Content    string `json:"content"`
	Date       string `json:"date"`
}

type tabsResponse struct {
	Tabs   []string `json:"tabs"`
	Active string   `json:"active"`
}

type newChatResponse struct {
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type turnResponse struct {
	Answer     string          `json:"answer"`
	References []pageReference `json:"references"`
}

type pageReference struct {
	Title  string `json:"title"`
	PageID int64  `json:"pageId"`
}

type selectionResponse struct {
	PageSelected bool  `json:"pageSelected"`
	PageID       int64 `json:"pageId"`
	FolderID     int64 `json:"folderId"`
}

type toggleResponse struct {
	Expanded bool `json:"expanded"`
}

// New constructs a Server over managers that were initialized once per
// process.
func New(docsMgr *docs.Manager, chatMgr *chat.Manager, sessions *session.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{docs: docsMgr, chat: chatMgr, sessions: sessions, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /v1/tree", s.handleTree)
	mux.HandleFunc("POST /v1/folders", s.handleAddFolder)
	mux.HandleFunc("DELETE /v1/folders/{id}", s.handleDeleteFolder)
	mux.HandleFunc("POST /v1/folders/{id}/toggle", s.handleToggleFolder)

	mux.HandleFunc("POST /v1/pages", s.handleAddPage)
	mux.HandleFunc("GET /v1/pages/{id}", s.handleGetPage)
	mux.HandleFunc("PUT /v1/pages/{id}/content", s.handleUpdateContent)
	mux.HandleFunc("PUT /v1/pages/{id}/date", s.handleUpdateDate)
	mux.HandleFunc("DELETE /v1/pages/{id}", s.handleDeletePage)
	mux.HandleFunc("POST /v1/pages/{id}/select", s.handleSelectPage)

	mux.HandleFunc("GET /v1/selection", s.handleGetSelection)
	mux.HandleFunc("POST /v1/selection/clear", s.handleClearSelection)

	mux.HandleFunc("GET /v1/chats", s.handleListChats)
	mux.HandleFunc("POST /v1/chats", s.handleNewChat)
	mux.HandleFunc("DELETE /v1/chats/{name}", s.handleDeleteChat)
	mux.HandleFunc("POST /v1/chats/{name}/activate", s.handleActivateChat)
	mux.HandleFunc("GET /v1/chats/{name}/messages", s.handleListMessages)
	mux.HandleFunc("POST /v1/chats/{name}/messages", s.handleSendMessage)

	mux.HandleFunc("POST /v1/ingest", s.handleIngest)
	return mux
}

// session returns the caller's session state, creating one (and setting the
// cookie) on first contact.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.State {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if state := s.sessions.Lookup(c.Value); state != nil {
			return state
		}
	}

	state := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    state.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return state
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	nodes, err := s.docs.Tree(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	sess.Lock()
	out := make([]folderNode, 0, len(nodes))
	for _, node := range nodes {
		fn := folderNode{
			ID:       node.ID,
			Name:     node.Name,
			Expanded: sess.ExpandedFolders[node.ID],
			Pages:    make([]pageNode, 0, len(node.Pages)),
		}
		for _, page := range node.Pages {
			fn.Pages = append(fn.Pages, pageNode{ID: page.ID, Name: page.Name, Date: page.Date})
		}
		out = append(out, fn)
	}
	sess.Unlock()

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddFolder(w http.ResponseWriter, r *http.Request) {
	var req addFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	ok, err := s.docs.AddFolder(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusConflict, fmt.Errorf("folder name already exists"))
		return
	}

	s.writeJSON(w, http.StatusCreated, messageResponse{Message: "folder added"})
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.docs.DeleteFolder(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "folder deleted"})
}

func (s *Server) handleToggleFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := s.session(w, r)
	expanded := s.docs.ToggleFolder(sess, id)
	s.writeJSON(w, http.StatusOK, toggleResponse{Expanded: expanded})
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	var req addPageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	id, err := s.docs.AddPage(r.Context(), req.Name, req.FolderID, req.Date)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	page, err := s.docs.GetPage(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPageNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	folderName := ""
	if folder, err := s.docs.GetFolder(r.Context(), page.FolderID); err == nil {
		folderName = folder.Name
	}

	s.writeJSON(w, http.StatusOK, pageResponse{
		ID:         page.ID,
		Name:       page.Name,
		FolderID:   page.FolderID,
		FolderName: folderName,
		Content:    page.Content,
		Date:       page.Date,
	})
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req updateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := s.docs.UpdateContent(r.Context(), id, req.Content); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "content saved"})
}

func (s *Server) handleUpdateDate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req updateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := s.docs.UpdateDate(r.Context(), id, req.Date); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "date saved"})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.docs.DeletePage(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "page deleted"})
}

func (s *Server) handleSelectPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := s.session(w, r)
	if err := s.docs.SelectPage(r.Context(), sess, id); err != nil {
		if errors.Is(err, store.ErrPageNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "page selected"})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	sess.Lock()
	resp := selectionResponse{
		PageSelected: sess.PageSelected,
		PageID:       sess.SelectedPageID,
		FolderID:     sess.SelectedFolderID,
	}
	sess.Unlock()

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.docs.ClearSelection(sess)
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "selection cleared"})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.chat.EnsureLoaded(r.Context(), sess); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	tabs, active := s.chat.Tabs(sess)
	s.writeJSON(w, http.StatusOK, tabsResponse{Tabs: tabs, Active: active})
}

func (s *Server) handleNewChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.chat.EnsureLoaded(r.Context(), sess); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	name, created, err := s.chat.NewChat(r.Context(), sess)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newChatResponse{Name: name, Created: created})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.chat.EnsureLoaded(r.Context(), sess); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	name := r.PathValue("name")
	if err := s.chat.DeleteChat(r.Context(), sess, name); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "chat deleted"})
}

func (s *Server) handleActivateChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.chat.EnsureLoaded(r.Context(), sess); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.chat.Activate(sess, r.PathValue("name")); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "chat activated"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.chat.EnsureLoaded(r.Context(), sess); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	messages, ok := s.chat.Messages(sess, r.PathValue("name"))
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown chat"))
		return
	}

	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := s.chat.EnsureLoaded(r.Context(), sess); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	turn, err := s.chat.SendMessage(r.Context(), sess, r.PathValue("name"), req.Content)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	refs := make([]pageReference, 0, len(turn.References))
	for _, ref := range turn.References {
		refs = append(refs, pageReference{Title: ref.Title, PageID: ref.PageID})
	}
	s.writeJSON(w, http.StatusOK, turnResponse{Answer: turn.Answer, References: refs})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read file: %w", err))
		return
	}

	folderID, err := strconv.ParseInt(r.FormValue("folderId"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid folderId"))
		return
	}

	pageName := r.FormValue("pageName")
	docType := r.FormValue("docType")
	date := r.FormValue("date")

	id, err := s.docs.IngestPDF(r.Context(), data, folderID, pageName, docType, date)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Printf("request failed: %v", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return id, nil
}
