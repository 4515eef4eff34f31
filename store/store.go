// Package store provides CRUD persistence for folders, pages, chats, and
// messages. Each method acquires a pooled connection, runs one statement, and
// releases it; the only recovered failure is a uniqueness violation, which is
// reported as a boolean false instead of an error.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPageNotFound   = errors.New("page not found")
	ErrFolderNotFound = errors.New("folder not found")
)

type Folder struct {
	ID   int64
	Name string
}

type Page struct {
	ID       int64
	Name     string
	FolderID int64
	Content  string
	Date     string
}

type Message struct {
	ID        int64
	ChatName  string
	Role      string
	Content   string
	CreatedAt time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListFolders returns every folder ordered by name.
func (s *Store) ListFolders(ctx context.Context) ([]Folder, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, folder_name FROM folders ORDER BY folder_name")
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

// AddFolder inserts a folder and reports false when the name already exists.
func (s *Store) AddFolder(ctx context.Context, name string) (bool, error) {
	_, err := s.pool.Exec(ctx, "INSERT INTO folders (folder_name) VALUES ($1)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert folder: %w", err)
	}
	return true, nil
}

func (s *Store) GetFolder(ctx context.Context, id int64) (Folder, error) {
	var f Folder
	err := s.pool.QueryRow(ctx, "SELECT id, folder_name FROM folders WHERE id = $1", id).
		Scan(&f.ID, &f.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Folder{}, ErrFolderNotFound
		}
		return Folder{}, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

// DeleteFolder removes a folder; its pages go with it via the declared
// ON DELETE CASCADE foreign key.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM folders WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return nil
}

// ListPages returns the folder's pages ordered by name.
func (s *Store) ListPages(ctx context.Context, folderID int64) ([]Page, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, page_name, folder_id, content, page_date FROM pages WHERE folder_id = $1 ORDER BY page_name",
		folderID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.Name, &p.FolderID, &p.Content, &p.Date); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

func (s *Store) GetPage(ctx context.Context, id int64) (Page, error) {
	var p Page
	err := s.pool.QueryRow(ctx,
		"SELECT id, page_name, folder_id, content, page_date FROM pages WHERE id = $1", id).
		Scan(&p.ID, &p.Name, &p.FolderID, &p.Content, &p.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, ErrPageNotFound
		}
		return Page{}, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// AddPage inserts a page and returns its generated id.
func (s *Store) AddPage(ctx context.Context, name string, folderID int64, content, date string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO pages (page_name, folder_id, content, page_date) VALUES ($1, $2, $3, $4) RETURNING id",
		name, folderID, content, date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert page: %w", err)
	}
	return id, nil
}

func (s *Store) UpdatePageContent(ctx context.Context, id int64, content string) error {
	if _, err := s.pool.Exec(ctx, "UPDATE pages SET content = $1 WHERE id = $2", content, id); err != nil {
		return fmt.Errorf("update page content: %w", err)
	}
	return nil
}

func (s *Store) UpdatePageDate(ctx context.Context, id int64, date string) error {
	if _, err := s.pool.Exec(ctx, "UPDATE pages SET page_date = $1 WHERE id = $2", date, id); err != nil {
		return fmt.Errorf("update page date: %w", err)
	}
	return nil
}

func (s *Store) DeletePage(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM pages WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

// ListChats returns chat names in creation order.
func (s *Store) ListChats(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT chat_name FROM chats ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return names, nil
}

// AddChat inserts a chat and reports false when the name already exists.
func (s *Store) AddChat(ctx context.Context, name string) (bool, error) {
	_, err := s.pool.Exec(ctx, "INSERT INTO chats (chat_name) VALUES ($1)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert chat: %w", err)
	}
	return true, nil
}

// DeleteChat removes a chat; its messages go with it via the declared
// ON DELETE CASCADE foreign key.
func (s *Store) DeleteChat(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM chats WHERE chat_name = $1", name); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

// ListMessages returns the chat's messages in insertion order.
func (s *Store) ListMessages(ctx context.Context, chatName string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, chat_name, role, content, created_at FROM messages WHERE chat_name = $1 ORDER BY id",
		chatName)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatName, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func (s *Store) AddMessage(ctx context.Context, chatName, role, content string) error {
	if _, err := s.pool.Exec(ctx,
		"INSERT INTO messages (chat_name, role, content) VALUES ($1, $2, $3)",
		chatName, role, content); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ClearAll wipes every stored record and resets identity sequences.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE messages, chats, pages, folders RESTART IDENTITY CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
