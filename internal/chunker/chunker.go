package chunker

import (
	"strings"
)

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 200  // bytes
)

// Splitter turns raw document text into retrievable units. Implementations are
// interchangeable; empty or whitespace-only input yields no chunks, never an error.
type Splitter interface {
	Split(text string) []string
}

// WindowSplitter cuts text into fixed-size windows with configurable overlap,
// looking back for a clean break near the window end.
type WindowSplitter struct {
	Size    int
	Overlap int
}

func NewWindowSplitter(size, overlap int) *WindowSplitter {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &WindowSplitter{Size: size, Overlap: overlap}
}

func (w *WindowSplitter) Split(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	contentLen := len(content)
	if contentLen <= w.Size {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+w.Size, contentLen)

		// look for a space or punctuation within the last 10% of the chunk
		if end < contentLen {
			lookBack := min(w.Size/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		step := end - start - w.Overlap
		if step <= 0 {
			step = end - start
		}
		start += step
		if end == contentLen {
			break
		}
	}
	return chunks
}

// ParagraphSplitter splits on blank-line boundaries. Paragraphs larger than
// MaxSize are subdivided through a window splitter so no unit exceeds a
// practical embedding input size.
type ParagraphSplitter struct {
	MaxSize int
	window  *WindowSplitter
}

func NewParagraphSplitter(maxSize, overlap int) *ParagraphSplitter {
	if maxSize <= 0 {
		maxSize = defaultChunkSize
	}
	return &ParagraphSplitter{
		MaxSize: maxSize,
		window:  NewWindowSplitter(maxSize, overlap),
	}
}

func (p *ParagraphSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var chunks []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= p.MaxSize {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, p.window.Split(para)...)
	}
	return chunks
}
