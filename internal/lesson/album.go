package lesson

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"speechaudio/internal/media"
)

var taggableExts = []string{".mp3", ".m4a", ".wav"}

var ErrTitleNeedsFile = errors.New("--title is only supported when tagging a single file")

type TagOptions struct {
	// Path is a single audio file or a directory of them.
	Path   string
	Album  string
	Title  string
	Artist string
	// OutputDir receives the tagged copies. Empty tags in place.
	OutputDir string
}

// TagAlbum rewrites the album, title and artist of one file or every audio
// file in a directory. Titles default to the file name without extension.
func (b *Builder) TagAlbum(ctx context.Context, opts TagOptions) ([]string, error) {
	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, err
	}
	if opts.Artist == "" {
		opts.Artist = media.DefaultArtist
	}

	var files []string
	if info.IsDir() {
		if opts.Title != "" {
			return nil, ErrTitleNeedsFile
		}
		entries, err := os.ReadDir(opts.Path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && slices.Contains(taggableExts, filepath.Ext(e.Name())) {
				files = append(files, filepath.Join(opts.Path, e.Name()))
			}
		}
		slices.Sort(files)
	} else {
		files = []string{opts.Path}
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, err
		}
	}

	var written []string
	for _, src := range files {
		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		title := opts.Title
		if title == "" {
			title = stem
		}
		tags := media.Tags{Title: title, Album: opts.Album, Artist: opts.Artist}

		dir := opts.OutputDir
		if dir == "" {
			dir = filepath.Dir(src)
		}
		out := filepath.Join(dir, stem+".mp3")
		if err := b.retag(ctx, src, out, tags); err != nil {
			return written, err
		}
		b.logger.Info().Str("file", out).Msg("exported")
		written = append(written, out)
	}
	return written, nil
}

// retag writes through a temporary file so src and out may be the same.
func (b *Builder) retag(ctx context.Context, src, out string, tags media.Tags) error {
	tmp, err := os.CreateTemp(filepath.Dir(out), ".tag-*.mp3")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := b.audio.Retag(ctx, src, tmpName, tags); err != nil {
		return fmt.Errorf("tag %s: %w", src, err)
	}
	return os.Rename(tmpName, out)
}
