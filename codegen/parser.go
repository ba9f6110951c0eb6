// Package codegen turns project descriptions into LLM prompts and LLM answers into files.
package codegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/oar-cd/shipyard/domain"
)

// ErrParseResponse is the only error returned by parsers. The cause is logged.
var ErrParseResponse = errors.New("failed to parse generated code response")

// ResponseParser extracts generated files from a raw LLM answer
type ResponseParser interface {
	Parse(raw string) ([]domain.GeneratedFile, error)
}

// filesBlock matches from the first opening brace to the last closing brace,
// provided a "files" key appears in between.
var filesBlock = regexp.MustCompile(`(?s)\{.*"files".*\}`)

// RegexParser accepts prose around the JSON payload
type RegexParser struct{}

func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

var _ ResponseParser = (*RegexParser)(nil)

type filesPayload struct {
	Files json.RawMessage `json:"files"`
}

func (p *RegexParser) Parse(raw string) ([]domain.GeneratedFile, error) {
	files, err := p.parse(raw)
	if err != nil {
		slog.Warn("Failed to parse generated code response",
			"layer", "codegen",
			"operation", "parse",
			"response_length", len(raw),
			"error", err)
		return nil, ErrParseResponse
	}
	return files, nil
}

func (p *RegexParser) parse(raw string) ([]domain.GeneratedFile, error) {
	block := filesBlock.FindString(raw)
	if block == "" {
		return nil, errors.New("no JSON object with a files key found")
	}

	var payload filesPayload
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(payload.Files) == 0 || payload.Files[0] != '[' {
		return nil, errors.New("files is not an array")
	}

	var files []domain.GeneratedFile
	if err := json.Unmarshal(payload.Files, &files); err != nil {
		return nil, fmt.Errorf("invalid files entry: %w", err)
	}
	if files == nil {
		files = []domain.GeneratedFile{}
	}
	return files, nil
}
