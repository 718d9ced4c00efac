package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Line is one raw line handed to the loader engine, tagged with the source
// it came from and its 1-based position within what this source has read.
type Line struct {
	Source string
	Number int
	Text   string
}

type FollowConfig struct {
	Name string `yaml:"-"`
	Path string `yaml:"path"`

	// FromStart reads the whole existing file before following appends.
	// Off by default: a follower normally only cares about new events.
	FromStart bool `yaml:"from_start"`
}

// Follow watches a CLEF file for appended lines and pushes them into a
// channel as they are written. Line numbers count from the first line this
// follower observed, so they match file positions only with FromStart.
type Follow struct {
	cfg    FollowConfig
	logger *slog.Logger
}

func NewFollow(logger *slog.Logger, cfg FollowConfig) (*Follow, error) {
	if cfg.Path == "" {
		return nil, errors.New("follow source requires a path")
	}
	return &Follow{cfg: cfg, logger: logger}, nil
}

func (f *Follow) Name() string {
	return f.cfg.Name
}

func (f *Follow) Provide(ctx context.Context, lines chan<- Line) error {
	file, err := os.Open(f.cfg.Path)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	if !f.cfg.FromStart {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.cfg.Path); err != nil {
		return fmt.Errorf("cannot add file to watcher: %w", err)
	}

	reader := bufio.NewReader(file)
	number := 0
	// Carries an incomplete trailing line between writes so the engine only
	// ever sees whole lines; half of a JSON object is not an event.
	pending := ""

	drain := func() error {
		for {
			chunk, err := reader.ReadString('\n')
			if err == io.EOF {
				pending += chunk
				return nil
			}
			if err != nil {
				return err
			}
			text := strings.TrimSuffix(strings.TrimSuffix(pending+chunk, "\n"), "\r")
			pending = ""
			number++
			select {
			case lines <- Line{Source: f.cfg.Name, Number: number, Text: text}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if f.cfg.FromStart {
		if err := drain(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if !event.Has(fsnotify.Write) {
				// TODO: handle rotation. A rename/create swaps the inode
				// and the watcher goes quiet; reopen and start over.
				f.logger.Debug("received unhandled event from fsnotify.", "event", event.String())
				continue
			}
			if err := drain(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
