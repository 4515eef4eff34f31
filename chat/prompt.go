package chat

import (
	"context"
	"fmt"
	"strings"
)

const groundingInstructions = `당신은 사용자의 업무 문서를 기반으로 답변하는 개인 업무 비서입니다.
아래는 사용자가 저장한 모든 문서입니다. 질문과 실제로 관련이 있는 문서만 인용하세요.
답변은 마크다운으로 작성하고, 문서를 인용할 때는 [문서 제목](page://문서ID) 형식의 링크를 사용하세요.
문서 간 내용이 충돌하면 더 최근 날짜의 문서를 우선하되, 충돌 사실을 함께 알려주세요.
인용한 문서에서 자격 요건이나 대상 제한에 관한 내용이 확인되면 반드시 언급해주세요.`

const emptyPageContent = "(내용 없음)"

// groundingPrompt concatenates the full text of every page, folder by folder,
// into the system block sent ahead of the chat history. It is rebuilt on every
// turn and never persisted.
func (m *Manager) groundingPrompt(ctx context.Context) (string, error) {
	folders, err := m.store.ListFolders(ctx)
	if err != nil {
		return "", fmt.Errorf("list folders for grounding: %w", err)
	}

	var blocks []string
	for _, folder := range folders {
		pages, err := m.store.ListPages(ctx, folder.ID)
		if err != nil {
			return "", fmt.Errorf("list pages for grounding: %w", err)
		}
		for _, page := range pages {
			content := page.Content
			if content == "" {
				content = emptyPageContent
			}
			blocks = append(blocks, fmt.Sprintf("■ [%s](page://%d)\n%s", page.Name, page.ID, content))
		}
	}

	if len(blocks) == 0 {
		return groundingInstructions + "\n\n(저장된 문서가 없습니다.)", nil
	}
	return groundingInstructions + "\n\n" + strings.Join(blocks, "\n\n"), nil
}
