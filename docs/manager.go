// Package docs manages folders and pages: CRUD with input validation, the
// sidebar tree, page selection state, and turning uploaded PDFs into new
// pages.
package docs

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Yeseung0610/docs-fairy/ingestion"
	"github.com/Yeseung0610/docs-fairy/session"
	"github.com/Yeseung0610/docs-fairy/store"
)

// Store is the persistence surface the document manager needs.
type Store interface {
	ListFolders(ctx context.Context) ([]store.Folder, error)
	AddFolder(ctx context.Context, name string) (bool, error)
	GetFolder(ctx context.Context, id int64) (store.Folder, error)
	DeleteFolder(ctx context.Context, id int64) error
	ListPages(ctx context.Context, folderID int64) ([]store.Page, error)
	GetPage(ctx context.Context, id int64) (store.Page, error)
	AddPage(ctx context.Context, name string, folderID int64, content, date string) (int64, error)
	UpdatePageContent(ctx context.Context, id int64, content string) error
	UpdatePageDate(ctx context.Context, id int64, date string) error
	DeletePage(ctx context.Context, id int64) error
}

type Manager struct {
	store     Store
	converter ingestion.Converter
	logger    *log.Logger
}

// FolderNode is a folder with its pages, for the sidebar.
type FolderNode struct {
	store.Folder
	Pages []store.Page
}

func NewManager(st Store, converter ingestion.Converter, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{store: st, converter: converter, logger: logger}
}

// AddFolder validates the name and inserts the folder, reporting false on a
// duplicate name.
func (m *Manager) AddFolder(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("folder name cannot be empty")
	}
	return m.store.AddFolder(ctx, name)
}

func (m *Manager) DeleteFolder(ctx context.Context, id int64) error {
	return m.store.DeleteFolder(ctx, id)
}

func (m *Manager) GetFolder(ctx context.Context, id int64) (store.Folder, error) {
	return m.store.GetFolder(ctx, id)
}

// AddPage creates an empty page in the folder.
func (m *Manager) AddPage(ctx context.Context, name string, folderID int64, date string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("page name cannot be empty")
	}
	return m.store.AddPage(ctx, name, folderID, "", date)
}

func (m *Manager) GetPage(ctx context.Context, id int64) (store.Page, error) {
	return m.store.GetPage(ctx, id)
}

func (m *Manager) UpdateContent(ctx context.Context, id int64, content string) error {
	return m.store.UpdatePageContent(ctx, id, content)
}

func (m *Manager) UpdateDate(ctx context.Context, id int64, date string) error {
	return m.store.UpdatePageDate(ctx, id, date)
}

func (m *Manager) DeletePage(ctx context.Context, id int64) error {
	return m.store.DeletePage(ctx, id)
}

// Tree returns every folder with its pages, in store order.
func (m *Manager) Tree(ctx context.Context) ([]FolderNode, error) {
	folders, err := m.store.ListFolders(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]FolderNode, 0, len(folders))
	for _, folder := range folders {
		pages, err := m.store.ListPages(ctx, folder.ID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, FolderNode{Folder: folder, Pages: pages})
	}
	return nodes, nil
}

// IngestPDF converts the uploaded PDF into markdown notes and stores them as
// a new page. On conversion failure no page is created and the returned error
// carries the user-facing text.
func (m *Manager) IngestPDF(ctx context.Context, data []byte, folderID int64, pageName, docType, date string) (int64, error) {
	pageName = strings.TrimSpace(pageName)
	if pageName == "" {
		return 0, fmt.Errorf("page name cannot be empty")
	}

	notes, err := m.converter.Convert(ctx, data, docType)
	if err != nil {
		return 0, fmt.Errorf("PDF 처리 중 오류가 발생했습니다: %s", err)
	}

	id, err := m.store.AddPage(ctx, pageName, folderID, notes, date)
	if err != nil {
		return 0, err
	}
	m.logger.Printf("ingested pdf into page %d (%s)", id, pageName)
	return id, nil
}

// SelectPage records the page (and its folder) as the session's open page.
// The page is fetched first so a stale id from another session's delete
// surfaces as not-found instead of a dangling selection.
func (m *Manager) SelectPage(ctx context.Context, sess *session.State, pageID int64) error {
	page, err := m.store.GetPage(ctx, pageID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()
	sess.SelectedPageID = page.ID
	sess.SelectedFolderID = page.FolderID
	sess.PageSelected = true
	return nil
}

// ClearSelection returns the session to the chat view.
func (m *Manager) ClearSelection(sess *session.State) {
	sess.Lock()
	defer sess.Unlock()
	sess.SelectedPageID = 0
	sess.SelectedFolderID = 0
	sess.PageSelected = false
}

// ToggleFolder flips the sidebar expand/collapse flag for a folder.
func (m *Manager) ToggleFolder(sess *session.State, folderID int64) bool {
	sess.Lock()
	defer sess.Unlock()
	sess.ExpandedFolders[folderID] = !sess.ExpandedFolders[folderID]
	return sess.ExpandedFolders[folderID]
}
