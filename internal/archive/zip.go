package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// Build zips assets in order. Repeated filenames get a numeric suffix so no
// entry shadows another when extracted.
func Build(assets []Asset, modified time.Time) ([]byte, error) {
	if len(assets) == 0 {
		return nil, errors.New("archive: nothing to archive")
	}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	used := make(map[string]int, len(assets))
	for _, asset := range assets {
		name := uniqueName(asset.Filename, used)
		hdr := &zip.FileHeader{Name: name, Method: zip.Store, Modified: modified}
		// Images are already compressed; only deflate everything else.
		if !strings.HasPrefix(asset.MIME, "image/") {
			hdr.Method = zip.Deflate
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("archive: add %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finish: %w", err)
	}
	return buf.Bytes(), nil
}

func uniqueName(name string, used map[string]int) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "image.jpg"
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
	for used[candidate] > 0 {
		n++
		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
	}
	used[candidate] = 1
	return candidate
}
