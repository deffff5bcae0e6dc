package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	odtContentPath      = "content.xml"
)

var (
	// <w:p> and <w:p w:rsidR="..."> but not <w:pPr>.
	docxParagraph = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?>(.*?)</w:p>`)
	docxText      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	docxBreak     = regexp.MustCompile(`<w:(?:br|cr)(?:\s[^>]*)?/>`)

	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

	odtBlock   = regexp.MustCompile(`(?s)<text:(p|h)(?:\s[^>]*)?>(.*?)</text:(?:p|h)>`)
	odtBreak   = regexp.MustCompile(`<text:line-break\s*/>`)
	odtTab     = regexp.MustCompile(`<text:tab\s*/>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
	emptyBlock = regexp.MustCompile(`<text:(?:p|h)(?:\s[^>]*)?/>`)
)

func openZip(content []byte, kind string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", kind, err)
	}
	return zr, nil
}

// readZipEntry returns the named entry, or nil when it is absent.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, MaxDocumentBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// docxMainPath finds the main document part from [Content_Types].xml,
// falling back to word/document.xml.
func docxMainPath(zr *zip.Reader) string {
	ct, err := readZipEntry(zr, contentTypesPath)
	if err != nil || ct == nil {
		return docxDocumentXMLPath
	}
	for _, re := range []*regexp.Regexp{partNameRe, partNameRe2} {
		if m := re.FindSubmatch(ct); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDocumentXMLPath
}

// extractDOCX returns one line per <w:p> paragraph, with <w:br/> as a line break.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	docPath := docxMainPath(zr)
	docXML, err := readZipEntry(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	var lines []string
	for _, p := range docxParagraph.FindAllSubmatch(docXML, -1) {
		body := docxBreak.ReplaceAll(p[1], []byte("<w:t>\n</w:t>"))
		var b strings.Builder
		for _, t := range docxText.FindAllSubmatch(body, -1) {
			b.WriteString(html.UnescapeString(string(t[1])))
		}
		lines = append(lines, strings.TrimSpace(b.String()))
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// extractODT returns one line per text:p or text:h block of content.xml.
func extractODT(content []byte) (string, error) {
	zr, err := openZip(content, "ODT")
	if err != nil {
		return "", err
	}
	contentXML, err := readZipEntry(zr, odtContentPath)
	if err != nil {
		return "", fmt.Errorf("extract ODT: %w", err)
	}
	if contentXML == nil {
		return "", fmt.Errorf("extract ODT: %s not found", odtContentPath)
	}

	doc := emptyBlock.ReplaceAll(contentXML, []byte("<text:p></text:p>"))
	var lines []string
	for _, m := range odtBlock.FindAllSubmatch(doc, -1) {
		body := odtBreak.ReplaceAll(m[2], []byte("\n"))
		body = odtTab.ReplaceAll(body, []byte("\t"))
		text := html.UnescapeString(string(anyTag.ReplaceAll(body, nil)))
		lines = append(lines, strings.TrimSpace(text))
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
