package library

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
)

const docXMLMax = 50 << 20

var blankLines = regexp.MustCompile(`\n{3,}`)

// ExtractText pulls plain text out of a stored document. The format is
// chosen by content type with the file extension as fallback: docx
// archives are walked for their XML text runs, HTML goes through
// readability, text formats pass through. Anything else errors.
func ExtractText(data []byte, contentType string, name string) (string, error) {
	switch formatOf(contentType, name) {
	case formatDocx:
		return extractDocx(data)
	case formatHTML:
		return extractHTML(data, name)
	case formatPlain:
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported content type %s for %s", contentType, name)
	}
}

type format int

const (
	formatUnknown format = iota
	formatDocx
	formatHTML
	formatPlain
)

func formatOf(contentType string, name string) format {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case mediaType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" || ext == ".docx":
		return formatDocx
	case mediaType == "text/html" || mediaType == "application/xhtml+xml" || ext == ".html" || ext == ".htm":
		return formatHTML
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		ext == ".txt", ext == ".md", ext == ".markdown", ext == ".csv":
		return formatPlain
	}
	return formatUnknown
}

// extractHTML prefers the readability view of the page and falls back to
// collecting every text node when no article can be isolated.
func extractHTML(data []byte, name string) (string, error) {
	base, err := url.Parse(name)
	if err != nil {
		base = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err == nil {
		var builder strings.Builder
		if err := article.RenderText(&builder); err == nil {
			if text := strings.TrimSpace(builder.String()); text != "" {
				return text, nil
			}
		}
	}

	return htmlText(data)
}

// htmlText flattens the whole document body, skipping script and style
// subtrees.
func htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var text strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "noscript":
				return
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
				text.WriteByte('\n')
			}
		}
		if node.Type == html.TextNode {
			text.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return collapseBlankLines(strings.TrimSpace(text.String())), nil
}

// HTMLTitle returns the document title, or "" when there is none.
func HTMLTitle(data []byte) string {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var title string
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if title != "" {
			return
		}
		if node.Type == html.ElementNode && node.Data == "title" {
			if node.FirstChild != nil && node.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(node.FirstChild.Data)
			}
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return title
}

// extractDocx walks word/document.xml and concatenates the text runs.
// Tracked deletions are skipped, table cells become tab-separated,
// paragraphs and rows end lines.
func extractDocx(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var document *zip.File
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document = file
			break
		}
	}
	if document == nil {
		return "", errors.New("docx has no word/document.xml")
	}
	if document.UncompressedSize64 > docXMLMax {
		return "", fmt.Errorf("document.xml too large: %d bytes", document.UncompressedSize64)
	}

	reader, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer reader.Close()

	decoder := xml.NewDecoder(io.LimitReader(reader, docXMLMax))

	var text strings.Builder
	inText := false
	deleted := 0
	cell := 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "del":
				deleted++
			case "t":
				inText = true
			case "tab":
				if deleted == 0 {
					text.WriteByte('\t')
				}
			case "br", "cr":
				if deleted == 0 {
					text.WriteByte('\n')
				}
			case "tr":
				cell = 0
			case "tc":
				if deleted == 0 {
					if cell > 0 {
						text.WriteByte('\t')
					}
					cell++
				}
			}

		case xml.EndElement:
			switch element.Name.Local {
			case "del":
				if deleted > 0 {
					deleted--
				}
			case "t":
				inText = false
			case "p", "tr":
				if deleted == 0 {
					text.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText && deleted == 0 {
				text.Write(element)
			}
		}
	}

	return collapseBlankLines(strings.TrimSpace(text.String())), nil
}

func collapseBlankLines(text string) string {
	return blankLines.ReplaceAllString(text, "\n\n")
}
