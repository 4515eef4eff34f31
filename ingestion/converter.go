// Package ingestion turns uploaded PDF files into markdown notes by
// extracting their text and handing it to the language model together with a
// document-type specific instruction template.
package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Yeseung0610/docs-fairy/llm"
)

// Converter produces markdown notes from an uploaded document.
type Converter interface {
	Convert(ctx context.Context, data []byte, docType string) (string, error)
}

// NotesConverter extracts PDF text locally and asks the language model to
// rewrite it according to the selected instruction template.
type NotesConverter struct {
	llm    llm.Client
	logger *log.Logger
}

func NewNotesConverter(client llm.Client, logger *log.Logger) *NotesConverter {
	if logger == nil {
		logger = log.Default()
	}
	return &NotesConverter{llm: client, logger: logger}
}

func (c *NotesConverter) Convert(ctx context.Context, data []byte, docType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("uploaded file is empty")
	}

	text, err := c.extractText(data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text found in pdf")
	}

	messages := []llm.Message{{
		Role:    llm.RoleUser,
		Content: InstructionsFor(docType) + "\n\n---\n\n" + text,
	}}

	notes, err := c.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate notes: %w", err)
	}
	return strings.TrimSpace(notes), nil
}

// extractText stages the upload in a temporary file and pulls the plain text
// out of it. The temporary artifact is removed whether extraction succeeds or
// fails.
func (c *NotesConverter) extractText(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "docs-fairy-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil {
			c.logger.Printf("remove temp file %s: %v", tmpPath, removeErr)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	file, reader, err := pdf.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}
