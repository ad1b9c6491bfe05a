// Package extract converts uploaded document bytes into plain text suitable
// for chunking. PDF, plain text, markdown, and HTML are supported; anything
// else is rejected as invalid input.
package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"docquery/internal/errs"
)

// Text extracts plain text from document bytes based on the MIME type.
// Parameters after a semicolon (e.g. "text/plain; charset=utf-8") are ignored.
func Text(data []byte, mimeType string) (string, error) {
	switch normalizeMIME(mimeType) {
	case "application/pdf":
		return pdfText(data)
	case "text/plain":
		return string(data), nil
	case "text/markdown", "text/x-markdown":
		return markdownText(data), nil
	case "text/html", "application/xhtml+xml":
		return htmlText(string(data)), nil
	default:
		return "", &errs.ValidationError{
			Field:   "mimeType",
			Message: fmt.Sprintf("unsupported file type %q", mimeType),
		}
	}
}

// normalizeMIME lowercases the type and strips parameters.
func normalizeMIME(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// pdfText extracts the text content of every page in the PDF.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &errs.ValidationError{Field: "file", Message: fmt.Sprintf("invalid PDF: %v", err)}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.Table))

// markdownText parses markdown and walks the AST collecting text content,
// dropping formatting while keeping block separation.
func markdownText(content []byte) string {
	doc := markdownParser.Parser().Parse(text.NewReader(content))

	var builder strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			builder.Write(node.Segment.Value(content))
			if node.HardLineBreak() || node.SoftLineBreak() {
				builder.WriteString("\n")
			}
		case *ast.String:
			builder.Write(node.Value)
		case *ast.CodeBlock:
			writeLines(&builder, node, content)
		case *ast.FencedCodeBlock:
			writeLines(&builder, node, content)
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
				builder.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return builder.String()
}

// writeLines appends the raw source lines of a block node.
func writeLines(builder *strings.Builder, n ast.Node, content []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		builder.Write(line.Value(content))
	}
}

// Pre-compiled regular expressions for HTML stripping.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	blockCloseTag = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|section|article|br)>|<br\s*/?>`)
	anyTag        = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// htmlText strips markup and returns the visible text of an HTML document.
func htmlText(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = blockCloseTag.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)

	// Collapse per-line whitespace left behind by removed tags.
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	content = strings.Join(lines, "\n")
	content = blankRuns.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
