// Package copyright extracts copyright statements from source archives.
// Extraction may degrade from archive contents to license text to a
// sentinel, but it never blocks saving a library.
package copyright

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"
)

// maxFileScan bounds how much of a single archive member is scanned.
// Copyright headers live at the top of files; scanning megabytes of minified
// bundles buys nothing.
const maxFileScan = 256 * 1024

// Result carries the two copyright sets produced by an archive scan: Full
// covers every file, Simple only documentation-like files (license, notice,
// readme naming patterns). Both are deduplicated and sorted.
type Result struct {
	Full   []string
	Simple []string
}

// docFilePattern matches the file names whose copyright statements are
// considered authoritative: license/copying/notice/readme variants in any
// directory of the archive.
var docFilePattern = regexp.MustCompile(`(?i)^(licen[cs]e|copying|notice|readme|copyright)([-._].*)?$`)

var (
	reCopyrightLine = regexp.MustCompile(`(?i)copyright\s*(\(c\)|©|[0-9])`)
	reHasDigits     = regexp.MustCompile(`\d`)
)

// Extract scans every file of a ZIP, JAR or TAR(.gz) archive for copyright
// statements. Unsupported archive bytes return an error; the caller falls
// back to license-text extraction.
func Extract(data []byte) (Result, error) {
	files, err := listArchive(data)
	if err != nil {
		return Result{}, err
	}

	full := map[string]bool{}
	simple := map[string]bool{}

	for _, f := range files {
		statements := scanContent(f.content)
		if len(statements) == 0 {
			continue
		}
		isDoc := docFilePattern.MatchString(path.Base(f.name))
		for _, s := range statements {
			full[s] = true
			if isDoc {
				simple[s] = true
			}
		}
	}

	return Result{Full: sortedKeys(full), Simple: sortedKeys(simple)}, nil
}

// ExtractFromText scans a single blob of text (typically the library's
// downloaded license text) for copyright statements.
func ExtractFromText(text string) []string {
	set := map[string]bool{}
	for _, s := range scanContent([]byte(text)) {
		set[s] = true
	}
	return sortedKeys(set)
}

// scanContent returns the copyright lines of one file. A line counts when it
// contains a "Copyright" marker followed by a year digit, a "(c)" or a "©";
// pure boilerplate like "copyright notice" without any of those is skipped.
func scanContent(content []byte) []string {
	if len(content) > maxFileScan {
		content = content[:maxFileScan]
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return nil // binary
	}

	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimLeft(line, "/*#;!- \t")
		if !reCopyrightLine.MatchString(line) {
			continue
		}
		if !reHasDigits.MatchString(line) && !strings.Contains(strings.ToLower(line), "(c)") &&
			!strings.Contains(line, "©") {
			continue
		}
		out = append(out, line)
	}
	return out
}

type archiveFile struct {
	name    string
	content []byte
}

// listArchive expands ZIP/JAR or TAR/TGZ bytes into member files. The format
// is sniffed from magic bytes, not trusted from any file name.
func listArchive(data []byte) ([]archiveFile, error) {
	switch {
	case len(data) >= 4 && bytes.HasPrefix(data, []byte("PK")):
		return listZip(data)
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("reading gzip archive: %w", err)
		}
		defer gz.Close()
		return listTar(gz)
	default:
		// Bare tar has its magic 257 bytes in; try it last.
		if files, err := listTar(bytes.NewReader(data)); err == nil && len(files) > 0 {
			return files, nil
		}
		return nil, errors.New("unrecognized archive format")
	}
}

func listZip(data []byte) ([]archiveFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading zip archive: %w", err)
	}
	var files []archiveFile
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxFileScan))
		rc.Close()
		if err != nil {
			continue
		}
		files = append(files, archiveFile{name: f.Name, content: content})
	}
	return files, nil
}

func listTar(r io.Reader) ([]archiveFile, error) {
	tr := tar.NewReader(r)
	var files []archiveFile
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(io.LimitReader(tr, maxFileScan))
		if err != nil {
			return nil, err
		}
		files = append(files, archiveFile{name: hdr.Name, content: content})
	}
	return files, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
