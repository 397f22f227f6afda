package upload

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
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// maxArchiveMember bounds how much of one archive member gets read. Upload
// archives carry manifests, not source trees; anything bigger is skipped.
const maxArchiveMember = 4 * 1024 * 1024

// ArchiveLoader reads dependency manifests out of an uploaded ZIP, JAR, TAR
// or TGZ: embedded CycloneDX BOMs (bom.xml), dependency CSVs, and for plain
// JARs the META-INF manifest itself as a single-library fallback.
type ArchiveLoader struct {
	BOM *BOMLoader
	CSV *CSVLoader
}

func (l *ArchiveLoader) Name() string { return "archive" }

func (l *ArchiveLoader) Load(data []byte) ([]*model.Library, error) {
	members, err := expand(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	var libs []*model.Library
	for _, m := range members {
		base := strings.ToLower(path.Base(m.name))
		switch {
		case base == "bom.xml":
			found, err := l.BOM.Load(m.content)
			if err != nil {
				continue // one bad manifest must not sink the whole archive
			}
			libs = append(libs, found...)
		case strings.HasSuffix(base, ".csv"):
			found, err := l.CSV.Load(m.content)
			if err != nil {
				continue
			}
			libs = append(libs, found...)
		}
	}

	// A JAR without any embedded manifest still identifies itself.
	if len(libs) == 0 {
		if lib := manifestLibrary(members); lib != nil {
			libs = append(libs, lib)
		}
	}

	if len(libs) == 0 {
		return nil, fmt.Errorf("%w: archive contains no recognizable dependency manifest", model.ErrValidation)
	}
	return libs, nil
}

// manifestLibrary derives a single library from META-INF/MANIFEST.MF
// Implementation-Title/Implementation-Version headers.
func manifestLibrary(members []member) *model.Library {
	for _, m := range members {
		if !strings.EqualFold(m.name, "META-INF/MANIFEST.MF") {
			continue
		}
		lib := &model.Library{Type: "maven"}
		scanner := bufio.NewScanner(bytes.NewReader(m.content))
		for scanner.Scan() {
			key, value, ok := strings.Cut(scanner.Text(), ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			switch strings.TrimSpace(key) {
			case "Implementation-Title":
				lib.Name = value
			case "Implementation-Version":
				lib.Version = value
			case "Implementation-Vendor-Id":
				lib.Namespace = value
			}
		}
		if lib.Name != "" && lib.Version != "" {
			return lib
		}
	}
	return nil
}

type member struct {
	name    string
	content []byte
}

func expand(data []byte) ([]member, error) {
	switch {
	case bytes.HasPrefix(data, []byte("PK")):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		var members []member
		for _, f := range zr.File {
			if f.FileInfo().IsDir() || f.UncompressedSize64 > maxArchiveMember {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				continue
			}
			content, err := io.ReadAll(io.LimitReader(rc, maxArchiveMember))
			rc.Close()
			if err != nil {
				continue
			}
			members = append(members, member{name: f.Name, content: content})
		}
		return members, nil
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return expandTar(gz)
	default:
		if members, err := expandTar(bytes.NewReader(data)); err == nil && len(members) > 0 {
			return members, nil
		}
		return nil, errors.New("unrecognized archive format")
	}
}

func expandTar(r io.Reader) ([]member, error) {
	tr := tar.NewReader(r)
	var members []member
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg || hdr.Size > maxArchiveMember {
			continue
		}
		content, err := io.ReadAll(io.LimitReader(tr, maxArchiveMember))
		if err != nil {
			return nil, err
		}
		members = append(members, member{name: hdr.Name, content: content})
	}
	return members, nil
}
