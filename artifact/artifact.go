// Package artifact writes generated content and its metadata to disk.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const maxStemLen = 50

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Metadata is the sibling .meta.json document.
type Metadata struct {
	Title           string   `json:"title"`
	ContentType     string   `json:"content_type"`
	Tags            []string `json:"tags"`
	FocusKeyphrase  string   `json:"focus_keyphrase"`
	MetaDescription string   `json:"meta_description"`
}

// Artifact describes one saved generation.
type Artifact struct {
	ContentPath  string   `json:"content_file"`
	MetadataPath string   `json:"metadata_file"`
	Metadata     Metadata `json:"metadata"`
}

// Writer saves artifacts under Dir. With Unique unset an existing pair for the same
// topic and content type is overwritten.
type Writer struct {
	Dir    string
	Unique bool
	log    logrus.FieldLogger
}

func NewWriter(dir string, unique bool, log logrus.FieldLogger) *Writer {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Writer{Dir: dir, Unique: unique, log: log}
}

// SanitizeFilename lowercases topic, collapses every run of non-word characters
// into one underscore and keeps at most 50 characters.
func SanitizeFilename(topic string) string {
	s := nonWord.ReplaceAllString(strings.ToLower(topic), "_")
	if r := []rune(s); len(r) > maxStemLen {
		s = string(r[:maxStemLen])
	}
	return s
}

// Stem is the shared file name prefix, e.g. "ai_the_future__blog".
func Stem(topic, contentType string) string {
	return SanitizeFilename(topic) + "_" + strings.ReplaceAll(contentType, " ", "_")
}

// Save writes raw verbatim to <stem>.txt and the metadata to <stem>.meta.json.
func (w *Writer) Save(topic, contentType, raw string, tags []string, focusKeyphrase, metaDescription string) (Artifact, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create output dir: %w", err)
	}
	stem, err := w.pickStem(Stem(topic, contentType))
	if err != nil {
		return Artifact{}, err
	}
	if tags == nil {
		tags = []string{}
	}
	art := Artifact{
		ContentPath:  filepath.Join(w.Dir, stem+".txt"),
		MetadataPath: filepath.Join(w.Dir, stem+".meta.json"),
		Metadata: Metadata{
			Title:           topic,
			ContentType:     contentType,
			Tags:            tags,
			FocusKeyphrase:  focusKeyphrase,
			MetaDescription: metaDescription,
		},
	}

	meta, err := encodeMetadata(art.Metadata)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.WriteFile(art.ContentPath, []byte(raw), 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write content: %w", err)
	}
	if err := os.WriteFile(art.MetadataPath, meta, 0o644); err != nil {
		// 不留下没有元数据的 .txt
		_ = os.Remove(art.ContentPath)
		return Artifact{}, fmt.Errorf("write metadata: %w", err)
	}
	w.log.WithFields(logrus.Fields{
		"content_file":  art.ContentPath,
		"metadata_file": art.MetadataPath,
	}).Info("saved generated content")
	return art, nil
}

// ReadMetadata loads a .meta.json file written by Save.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

func (w *Writer) pickStem(base string) (string, error) {
	if !w.Unique {
		return base, nil
	}
	// 追加 _2、_3… 直到 .txt 和 .meta.json 都不存在。
	for n := 1; ; n++ {
		stem := base
		if n > 1 {
			stem = base + "_" + strconv.Itoa(n)
		}
		taken, err := w.exists(stem + ".txt")
		if err != nil {
			return "", err
		}
		if !taken {
			if taken, err = w.exists(stem + ".meta.json"); err != nil {
				return "", err
			}
		}
		if !taken {
			return stem, nil
		}
	}
}

func (w *Writer) exists(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(w.Dir, name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func encodeMetadata(m Metadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
