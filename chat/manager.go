// Package chat manages tabbed conversations: loading them from the store,
// creating and deleting tabs, and running one question/answer turn against
// the language model with every stored page injected as grounding context.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Yeseung0610/docs-fairy/llm"
	"github.com/Yeseung0610/docs-fairy/session"
	"github.com/Yeseung0610/docs-fairy/store"
)

// DefaultChatName is the tab that always exists; deleting the last tab
// recreates it.
const DefaultChatName = "일반 대화"

// Store is the persistence surface the chat manager needs.
type Store interface {
	ListFolders(ctx context.Context) ([]store.Folder, error)
	ListPages(ctx context.Context, folderID int64) ([]store.Page, error)
	ListChats(ctx context.Context) ([]string, error)
	AddChat(ctx context.Context, name string) (bool, error)
	DeleteChat(ctx context.Context, name string) error
	ListMessages(ctx context.Context, chatName string) ([]store.Message, error)
	AddMessage(ctx context.Context, chatName, role, content string) error
}

type Manager struct {
	store  Store
	llm    llm.Client
	logger *log.Logger
}

// Turn is the outcome of one sent message.
type Turn struct {
	Answer     string
	References []Reference
}

func NewManager(st Store, client llm.Client, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{store: st, llm: client, logger: logger}
}

// EnsureLoaded populates the session's tabs from the store on first use. When
// no chat exists yet, the default one is created first. The first chat in
// creation order becomes the active tab.
func (m *Manager) EnsureLoaded(ctx context.Context, sess *session.State) error {
	sess.Lock()
	defer sess.Unlock()

	if sess.Loaded {
		return nil
	}

	names, err := m.store.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}

	if len(names) == 0 {
		if _, err := m.store.AddChat(ctx, DefaultChatName); err != nil {
			return fmt.Errorf("create default chat: %w", err)
		}
		names, err = m.store.ListChats(ctx)
		if err != nil {
			return fmt.Errorf("load chats: %w", err)
		}
	}

	for _, name := range names {
		messages, err := m.store.ListMessages(ctx, name)
		if err != nil {
			return fmt.Errorf("load messages for %s: %w", name, err)
		}
		sess.Tabs[name] = messages
		sess.TabOrder = append(sess.TabOrder, name)
	}

	sess.ActiveTab = sess.TabOrder[0]
	sess.Loaded = true
	return nil
}

// NewChat creates the next numbered tab. The name is derived from the current
// tab count, so a delete-then-add cycle can produce a name that already
// exists in the store; in that case the store reports a duplicate and the
// whole operation is a no-op.
func (m *Manager) NewChat(ctx context.Context, sess *session.State) (string, bool, error) {
	sess.Lock()
	defer sess.Unlock()

	name := fmt.Sprintf("새 대화 %d", len(sess.TabOrder)+1)
	ok, err := m.store.AddChat(ctx, name)
	if err != nil {
		return "", false, err
	}
	if !ok {
		m.logger.Printf("chat %q already exists, not adding tab", name)
		return name, false, nil
	}

	sess.Tabs[name] = nil
	sess.TabOrder = append(sess.TabOrder, name)
	sess.ActiveTab = name
	return name, true, nil
}

// DeleteChat removes a tab and its persisted history. Deleting the active tab
// activates the first remaining one; deleting the last tab recreates the
// default chat in both the store and the session.
func (m *Manager) DeleteChat(ctx context.Context, sess *session.State, name string) error {
	sess.Lock()
	defer sess.Unlock()

	if _, ok := sess.Tabs[name]; !ok {
		return fmt.Errorf("unknown chat: %s", name)
	}

	if err := m.store.DeleteChat(ctx, name); err != nil {
		return err
	}

	delete(sess.Tabs, name)
	for i, tab := range sess.TabOrder {
		if tab == name {
			sess.TabOrder = append(sess.TabOrder[:i], sess.TabOrder[i+1:]...)
			break
		}
	}

	if sess.ActiveTab != name {
		return nil
	}

	if len(sess.TabOrder) > 0 {
		sess.ActiveTab = sess.TabOrder[0]
		return nil
	}

	if _, err := m.store.AddChat(ctx, DefaultChatName); err != nil {
		return fmt.Errorf("recreate default chat: %w", err)
	}
	sess.Tabs[DefaultChatName] = nil
	sess.TabOrder = []string{DefaultChatName}
	sess.ActiveTab = DefaultChatName
	return nil
}

// Activate switches the active tab.
func (m *Manager) Activate(sess *session.State, name string) error {
	sess.Lock()
	defer sess.Unlock()

	if _, ok := sess.Tabs[name]; !ok {
		return fmt.Errorf("unknown chat: %s", name)
	}
	sess.ActiveTab = name
	return nil
}

// Tabs returns a snapshot of the tab names in creation order plus the active
// tab name.
func (m *Manager) Tabs(sess *session.State) ([]string, string) {
	sess.Lock()
	defer sess.Unlock()

	order := make([]string, len(sess.TabOrder))
	copy(order, sess.TabOrder)
	return order, sess.ActiveTab
}

// Messages returns a snapshot of one tab's history.
func (m *Manager) Messages(sess *session.State, name string) ([]store.Message, bool) {
	sess.Lock()
	defer sess.Unlock()

	messages, ok := sess.Tabs[name]
	if !ok {
		return nil, false
	}
	snapshot := make([]store.Message, len(messages))
	copy(snapshot, messages)
	return snapshot, true
}

// SendMessage runs one conversation turn: persist the user message, build the
// grounding prompt over every stored page, call the model with the full tab
// history, highlight the answer, and persist it. A model failure is not an
// error path; its text becomes the assistant message.
func (m *Manager) SendMessage(ctx context.Context, sess *session.State, chatName, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, fmt.Errorf("message cannot be empty")
	}

	sess.Lock()
	defer sess.Unlock()

	if _, ok := sess.Tabs[chatName]; !ok {
		return Turn{}, fmt.Errorf("unknown chat: %s", chatName)
	}

	if err := m.store.AddMessage(ctx, chatName, llm.RoleUser, text); err != nil {
		return Turn{}, err
	}
	sess.Tabs[chatName] = append(sess.Tabs[chatName], store.Message{
		ChatName: chatName,
		Role:     llm.RoleUser,
		Content:  text,
	})

	grounding, err := m.groundingPrompt(ctx)
	if err != nil {
		return Turn{}, err
	}

	history := sess.Tabs[chatName]
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: grounding})
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	answer, genErr := m.llm.Generate(ctx, messages)
	if genErr != nil {
		answer = fmt.Sprintf("Error getting AI response: %s", genErr)
	}

	highlighted := Highlight(strings.TrimSpace(answer))

	if err := m.store.AddMessage(ctx, chatName, llm.RoleAssistant, highlighted); err != nil {
		return Turn{}, err
	}
	sess.Tabs[chatName] = append(sess.Tabs[chatName], store.Message{
		ChatName: chatName,
		Role:     llm.RoleAssistant,
		Content:  highlighted,
	})

	return Turn{Answer: highlighted, References: ParseReferences(highlighted)}, nil
}
