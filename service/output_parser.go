package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	model "github.com/Itish41/EmployeeCounsel/models"
)

// snippetRadius is how many characters of answer text surround a citation.
const snippetRadius = 50

type rawResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  *rawError       `json:"error"`
	Output []rawOutputItem `json:"output"`
	Usage  struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type rawError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type rawOutputItem struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Queries []string `json:"queries"`
	Action  *struct {
		Type  string `json:"type"`
		Query string `json:"query"`
	} `json:"action"`
	Content []struct {
		Type        string          `json:"type"`
		Text        string          `json:"text"`
		Annotations []rawAnnotation `json:"annotations"`
	} `json:"content"`
}

type rawAnnotation struct {
	Type       string `json:"type"`
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	Quote      string `json:"quote"`
	Index      int    `json:"index"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// ParseResponse turns a raw Responses API body into a RetrievalResult.
// Annotation offsets are character (rune) positions; offsets inside later
// text parts are shifted so they index into the concatenated answer.
func ParseResponse(raw []byte, latencyMs int64) (*model.RetrievalResult, error) {
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, providerError("decode response", err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, providerError("response "+resp.ID, errors.New(resp.Error.String()))
	}

	result := &model.RetrievalResult{
		Citations:         []model.Citation{},
		ToolInvocations:   []model.ToolInvocation{},
		ProviderRequestID: resp.ID,
		LatencyMs:         latencyMs,
		TokenUsage: model.TokenUsage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}

	var (
		answer     strings.Builder
		answerLen  int
		sawMessage bool
		pending    []model.Citation
	)
	for _, item := range resp.Output {
		switch item.Type {
		case "file_search_call":
			result.ToolInvocations = append(result.ToolInvocations, model.ToolInvocation{
				ID:      item.ID,
				Kind:    model.ToolDocumentSearch,
				Status:  item.Status,
				Queries: nonNil(item.Queries),
			})
		case "web_search_call":
			queries := []string{}
			if item.Action != nil && item.Action.Query != "" {
				queries = append(queries, item.Action.Query)
			}
			result.ToolInvocations = append(result.ToolInvocations, model.ToolInvocation{
				ID:      item.ID,
				Kind:    model.ToolWebSearch,
				Status:  item.Status,
				Queries: queries,
			})
		case "message":
			sawMessage = true
			for _, part := range item.Content {
				if part.Type != "output_text" {
					continue
				}
				for _, a := range part.Annotations {
					if c, ok := citationFromAnnotation(a, answerLen); ok {
						pending = append(pending, c)
					}
				}
				answer.WriteString(part.Text)
				answerLen += len([]rune(part.Text))
			}
		}
	}

	if !sawMessage {
		result.AnswerText = model.NoAnswerGenerated
		return result, nil
	}

	result.AnswerText = answer.String()
	text := []rune(result.AnswerText)
	for _, c := range pending {
		switch c.Kind {
		case model.CitationFile:
			c.Snippet = snippet(text, c.Offset, c.Offset)
		case model.CitationURL:
			c.Snippet = snippet(text, c.StartOffset, c.EndOffset)
		}
		result.Citations = append(result.Citations, c)
	}
	return result, nil
}

func citationFromAnnotation(a rawAnnotation, shift int) (model.Citation, bool) {
	switch a.Type {
	case string(model.CitationFile):
		return model.Citation{
			Kind:     model.CitationFile,
			FileRef:  a.FileID,
			FileName: a.Filename,
			Quote:    a.Quote,
			Offset:   a.Index + shift,
		}, true
	case string(model.CitationURL):
		return model.Citation{
			Kind:        model.CitationURL,
			URL:         a.URL,
			Title:       a.Title,
			StartOffset: a.StartIndex + shift,
			EndOffset:   a.EndIndex + shift,
		}, true
	}
	return model.Citation{}, false
}

// snippet returns text[start-50 : end+50], clamped to the bounds of text.
func snippet(text []rune, start, end int) string {
	lo := clamp(start-snippetRadius, 0, len(text))
	hi := clamp(end+snippetRadius, 0, len(text))
	if lo > hi {
		lo = hi
	}
	return string(text[lo:hi])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (e *rawError) String() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
