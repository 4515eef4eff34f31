package ingestion

// Document types selectable when uploading a PDF. Anything other than the
// plain document type falls back to meeting-minutes extraction.
const (
	DocTypeDocument     = "문서"
	DocTypeMeetingNotes = "회의록"
)

const documentTemplate = `당신은 제공된 PDF 문서를 분석하여 가능한 한 원문의 내용을 유지하여 기술하는 문서 작성 전문가이다. 문서에 기재된 내용을 충실히 반영하되, 가독성을 위해 문단 구분이나 리스트 표시는 허용된다. 추가 해석이나 삭제는 하지 말고, 마크다운을 사용해서 표시하라.`

const meetingNotesTemplate = `당신은 제공된 PDF 문서의 핵심 정보를 전문적인 회의록 형식으로 요약하는 임무를 맡은 숙련된 회의록 작성 전문가입니다.

문서를 분석하여 다음 정보를 추출하고, 마크다운을 사용하여 명확하게 구조화해주세요:

1.  **회의 주제:** 문서에서 논의된 회의의 주요 주제 또는 목적을 식별해주세요.
2.  **날짜 및 시간:** 언급된 경우, 회의 날짜와 시간을 명시해주세요. 명확하게 언급되지 않았다면 명시되지 않았다고 표시해주세요.
3.  **참석자:** 언급된 경우, 회의에 참석한 개인의 이름이나 역할을 나열해주세요. 명확하게 목록이 없다면 참석자가 명시되지 않았다고 표시하거나, 문맥상 파악이 가능하다면 그 내용을 바탕으로 나열해주세요.
4.  **핵심 논의 사항:** 회의 중 논의된 주요 주제를 요약해주세요. 명확성을 위해 글머리 기호(bullet point)를 사용해주세요.
5.  **결정된 사항:** 회의 중 도달한 중요한 결정, 합의 또는 결의안을 나열해주세요. 글머리 기호를 사용해주세요.
6.  **실행 항목 (Action Items):** 회의 중 할당된 구체적인 작업 항목을 식별해주세요. 각 실행 항목에 대해 담당자와 마감일이 언급되었다면 포함해주세요. 형식: "- [실행 항목 내용] (담당자: [이름/역할], 마감일: [날짜/시간])". 명확한 실행 항목이 없다면 "특정 실행 항목이 식별되지 않았습니다."라고 명시해주세요.
7.  **다음 단계 / 후속 조치:** 언급된 계획된 다음 단계, 향후 회의 또는 후속 조치를 요약해주세요.

요약은 간결하고 정확하며 전문적인 어조로 작성되어야 합니다. 문서에 제시된 사실적 정보 추출에 집중해주세요.`

// InstructionsFor selects the conversion template for the given document type.
func InstructionsFor(docType string) string {
	if docType == DocTypeDocument {
		return documentTemplate
	}
	return meetingNotesTemplate
}
