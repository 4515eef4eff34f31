package docs_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"testing"

	"github.com/Yeseung0610/docs-fairy/docs"
	"github.com/Yeseung0610/docs-fairy/session"
	"github.com/Yeseung0610/docs-fairy/store"
)

type fakeDocStore struct {
	nextFolderID int64
	nextPageID   int64
	folders      map[int64]string
	pages        map[int64]store.Page
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		folders: map[int64]string{},
		pages:   map[int64]store.Page{},
	}
}

func (f *fakeDocStore) ListFolders(ctx context.Context) ([]store.Folder, error) {
	folders := make([]store.Folder, 0, len(f.folders))
	for id, name := range f.folders {
		folders = append(folders, store.Folder{ID: id, Name: name})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

func (f *fakeDocStore) AddFolder(ctx context.Context, name string) (bool, error) {
	for _, existing := range f.folders {
		if existing == name {
			return false, nil
		}
	}
	f.nextFolderID++
	f.folders[f.nextFolderID] = name
	return true, nil
}

func (f *fakeDocStore) GetFolder(ctx context.Context, id int64) (store.Folder, error) {
	name, ok := f.folders[id]
	if !ok {
		return store.Folder{}, store.ErrFolderNotFound
	}
	return store.Folder{ID: id, Name: name}, nil
}

func (f *fakeDocStore) DeleteFolder(ctx context.Context, id int64) error {
	delete(f.folders, id)
	for pageID, page := range f.pages {
		if page.FolderID == id {
			delete(f.pages, pageID)
		}
	}
	return nil
}

func (f *fakeDocStore) ListPages(ctx context.Context, folderID int64) ([]store.Page, error) {
	pages := make([]store.Page, 0)
	for _, page := range f.pages {
		if page.FolderID == folderID {
			pages = append(pages, page)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })
	return pages, nil
}

func (f *fakeDocStore) GetPage(ctx context.Context, id int64) (store.Page, error) {
	page, ok := f.pages[id]
	if !ok {
		return store.Page{}, store.ErrPageNotFound
	}
	return page, nil
}

func (f *fakeDocStore) AddPage(ctx context.Context, name string, folderID int64, content, date string) (int64, error) {
	f.nextPageID++
	f.pages[f.nextPageID] = store.Page{
		ID:       f.nextPageID,
		Name:     name,
		FolderID: folderID,
		Content:  content,
		Date:     date,
	}
	return f.nextPageID, nil
}

func (f *fakeDocStore) UpdatePageContent(ctx context.Context, id int64, content string) error {
	page, ok := f.pages[id]
	if !ok {
		return fmt.Errorf("no page %d", id)
	}
	page.Content = content
	f.pages[id] = page
	return nil
}

func (f *fakeDocStore) UpdatePageDate(ctx context.Context, id int64, date string) error {
	page, ok := f.pages[id]
	if !ok {
		return fmt.Errorf("no page %d", id)
	}
	page.Date = date
	f.pages[id] = page
	return nil
}

func (f *fakeDocStore) DeletePage(ctx context.Context, id int64) error {
	delete(f.pages, id)
	return nil
}

var _ docs.Store = (*fakeDocStore)(nil)

type stubConverter struct {
	notes    string
	err      error
	docTypes []string
}

func (s *stubConverter) Convert(ctx context.Context, data []byte, docType string) (string, error) {
	s.docTypes = append(s.docTypes, docType)
	if s.err != nil {
		return "", s.err
	}
	return s.notes, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestAddFolderValidatesName(t *testing.T) {
	mgr := docs.NewManager(newFakeDocStore(), &stubConverter{}, testLogger())
	if _, err := mgr.AddFolder(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty folder name")
	}
}

func TestAddFolderReportsDuplicate(t *testing.T) {
	mgr := docs.NewManager(newFakeDocStore(), &stubConverter{}, testLogger())

	ok, err := mgr.AddFolder(context.Background(), "Projects")
	if err != nil || !ok {
		t.Fatalf("first add failed: ok=%v err=%v", ok, err)
	}
	ok, err = mgr.AddFolder(context.Background(), "Projects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("duplicate folder add must report false")
	}
}

func TestAddPageValidatesName(t *testing.T) {
	mgr := docs.NewManager(newFakeDocStore(), &stubConverter{}, testLogger())
	if _, err := mgr.AddPage(context.Background(), "", 1, ""); err == nil {
		t.Fatal("expected error for empty page name")
	}
}

func TestTreeNestsPagesUnderFolders(t *testing.T) {
	st := newFakeDocStore()
	mgr := docs.NewManager(st, &stubConverter{}, testLogger())
	ctx := context.Background()

	if _, err := mgr.AddFolder(ctx, "Projects"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mgr.AddPage(ctx, "Kickoff", 1, "2024-05-13"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree, err := mgr.Tree(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree) != 1 || tree[0].Name != "Projects" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if len(tree[0].Pages) != 1 || tree[0].Pages[0].Name != "Kickoff" {
		t.Fatalf("unexpected pages: %+v", tree[0].Pages)
	}
}

func TestIngestPDFCreatesPageFromNotes(t *testing.T) {
	st := newFakeDocStore()
	converter := &stubConverter{notes: "# 회의 주제\n예산 검토"}
	mgr := docs.NewManager(st, converter, testLogger())
	ctx := context.Background()

	if _, err := mgr.AddFolder(ctx, "회의"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := mgr.IngestPDF(ctx, []byte("%PDF"), 1, "5월 회의", "회의록", "2024-05-13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, err := mgr.GetPage(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Content != converter.notes {
		t.Fatalf("page content %q does not match converted notes", page.Content)
	}
	if page.Date != "2024-05-13" {
		t.Fatalf("unexpected page date: %q", page.Date)
	}
	if len(converter.docTypes) != 1 || converter.docTypes[0] != "회의록" {
		t.Fatalf("doc type not passed through: %v", converter.docTypes)
	}
}

func TestIngestPDFFailureCreatesNoPage(t *testing.T) {
	st := newFakeDocStore()
	converter := &stubConverter{err: errors.New("broken pdf")}
	mgr := docs.NewManager(st, converter, testLogger())
	ctx := context.Background()

	if _, err := mgr.AddFolder(ctx, "회의"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := mgr.IngestPDF(ctx, []byte("junk"), 1, "실패 문서", "문서", "")
	if err == nil {
		t.Fatal("expected ingestion error")
	}
	if !strings.HasPrefix(err.Error(), "PDF 처리 중 오류가 발생했습니다: ") {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
	if len(st.pages) != 0 {
		t.Fatalf("page created despite failure: %+v", st.pages)
	}
}

func TestSelectPageTracksFolder(t *testing.T) {
	st := newFakeDocStore()
	mgr := docs.NewManager(st, &stubConverter{}, testLogger())
	ctx := context.Background()
	sess := session.NewState()

	if _, err := mgr.AddFolder(ctx, "Projects"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := mgr.AddPage(ctx, "Kickoff", 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mgr.SelectPage(ctx, sess, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.PageSelected || sess.SelectedPageID != id || sess.SelectedFolderID != 1 {
		t.Fatalf("unexpected selection: %+v", sess)
	}

	mgr.ClearSelection(sess)
	if sess.PageSelected {
		t.Fatal("selection not cleared")
	}
}

func TestSelectPageNotFound(t *testing.T) {
	mgr := docs.NewManager(newFakeDocStore(), &stubConverter{}, testLogger())
	sess := session.NewState()

	err := mgr.SelectPage(context.Background(), sess, 99)
	if !errors.Is(err, store.ErrPageNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if sess.PageSelected {
		t.Fatal("selection must stay clear on not-found")
	}
}

func TestToggleFolderFlipsFlag(t *testing.T) {
	mgr := docs.NewManager(newFakeDocStore(), &stubConverter{}, testLogger())
	sess := session.NewState()

	if expanded := mgr.ToggleFolder(sess, 1); !expanded {
		t.Fatal("first toggle must expand")
	}
	if expanded := mgr.ToggleFolder(sess, 1); expanded {
		t.Fatal("second toggle must collapse")
	}
}
