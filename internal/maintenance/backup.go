package maintenance

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/logger"
)

// MaxUploadBytes is the attachment size Discord accepts from bots in
// guilds without boosts.
const MaxUploadBytes = 10 << 20

var ErrArchiveTooLarge = errors.New("backup archive exceeds the upload limit")

// Directories never copied into an archive.
var skippedDirs = map[string]bool{
	".git":      true,
	"_examples": true,
}

type Snapshotter interface {
	Snapshot(ctx context.Context, collection string) ([]map[string]any, error)
}

type CacheClearer interface {
	Clear()
}

type FileSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type BackupOptions struct {
	ChannelID   string
	Dir         string
	SourceDir   string
	Collections []string
}

// Backup snapshots the document store, packs the snapshots and the source
// tree into a gzip'd tarball and uploads it to a channel.
type Backup struct {
	store    Snapshotter
	cache    CacheClearer
	sender   FileSender
	reporter ErrorReporter
	opts     BackupOptions
	now      func() time.Time
}

func NewBackup(store Snapshotter, cache CacheClearer, sender FileSender, reporter ErrorReporter, opts BackupOptions) *Backup {
	return &Backup{
		store:    store,
		cache:    cache,
		sender:   sender,
		reporter: reporter,
		opts:     opts,
		now:      time.Now,
	}
}

// Run performs one backup. Intermediate files are removed whatever the
// outcome; failures are also sent to the error reporter.
func (b *Backup) Run(ctx context.Context) error {
	err := b.run(ctx)
	if err != nil {
		b.reporter.Report(ctx, err, "job", "backup")
	}
	return err
}

func (b *Backup) run(ctx context.Context) error {
	if b.cache != nil {
		b.cache.Clear()
	}
	if err := os.MkdirAll(b.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	var written []string
	defer func() {
		for _, p := range written {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Warn(ctx, "Failed to remove backup file", "path", p, "error", err)
			}
		}
	}()

	snapshots := make([]string, 0, len(b.opts.Collections))
	for _, collection := range b.opts.Collections {
		p, err := b.writeSnapshot(ctx, collection)
		if p != "" {
			written = append(written, p)
		}
		if err != nil {
			return err
		}
		snapshots = append(snapshots, p)
	}

	stamp := b.now().UTC().Format("20060102-150405")
	archive := filepath.Join(b.opts.Dir, "backup-"+stamp+".tar.gz")
	written = append(written, archive)
	if err := writeArchive(archive, snapshots, b.opts.SourceDir, b.opts.Dir); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	info, err := os.Stat(archive)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}
	logger.Info(ctx, "Backup archive written", "path", archive, "bytes", info.Size(), "collections", len(snapshots))

	if b.opts.ChannelID == "" {
		logger.Warn(ctx, "No backup channel configured, discarding archive")
		return nil
	}
	if info.Size() > MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, info.Size())
	}
	return b.upload(archive, stamp)
}

func (b *Backup) writeSnapshot(ctx context.Context, collection string) (string, error) {
	docs, err := b.store.Snapshot(ctx, collection)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot %s: %w", collection, err)
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", collection, err)
	}
	p := filepath.Join(b.opts.Dir, collection+".json")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return p, fmt.Errorf("failed to write %s: %w", p, err)
	}
	return p, nil
}

func (b *Backup) upload(archive, stamp string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	_, err = b.sender.ChannelMessageSendComplex(b.opts.ChannelID, &discordgo.MessageSend{
		Content: "Backup " + stamp,
		Files: []*discordgo.File{{
			Name:        filepath.Base(archive),
			ContentType: "application/gzip",
			Reader:      f,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}
	return nil
}

// writeArchive packs snapshots under snapshots/ and the regular files of
// sourceDir under source/. The backup dir itself is skipped.
func writeArchive(dst string, snapshots []string, sourceDir, backupDir string) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, p := range snapshots {
		if err := addFile(tw, p, path.Join("snapshots", filepath.Base(p))); err != nil {
			return err
		}
	}

	if sourceDir != "" {
		skipAbs, _ := filepath.Abs(backupDir)
		err := filepath.WalkDir(sourceDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p == sourceDir {
					return nil
				}
				abs, _ := filepath.Abs(p)
				if skippedDirs[d.Name()] || abs == skipAbs {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(sourceDir, p)
			if err != nil {
				return err
			}
			return addFile(tw, p, path.Join("source", filepath.ToSlash(rel)))
		})
		if err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFile(tw *tar.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
