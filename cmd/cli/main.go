package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/filter"
	"github.com/thisisjab/clefzilla/parser"
	"github.com/thisisjab/clefzilla/source"
)

// pairFlag collects repeatable KEY=VALUE flags.
type pairFlag map[string]string

func (p pairFlag) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (p pairFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected KEY=VALUE, got %q", s)
	}
	p[key] = value
	return nil
}

func main() {
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		}),
	)

	var (
		file     = flag.String("file", "", "path to the CLEF file (required)")
		enc      = flag.String("encoding", "", "source encoding (default utf-8)")
		lenient  = flag.Bool("lenient", false, "skip unparsable lines instead of stopping")
		level    = flag.String("level", "", "match this log level (case-insensitive)")
		since    = flag.String("since", "", "match events at or after this RFC 3339 timestamp")
		until    = flag.String("until", "", "match events at or before this RFC 3339 timestamp")
		message  = flag.String("message", "", "regexp over the rendered message")
		template = flag.String("template", "", "regexp over the message template")
		except   = flag.String("exception", "", "regexp over the exception payload")
		eventID  = flag.String("event-id", "", "match this event id")
		script   = flag.String("script", "", "path to a Lua match_event script")
	)
	fieldEquals := pairFlag{}
	fieldMatches := pairFlag{}
	flag.Var(fieldEquals, "field", "match a user field exactly, KEY=VALUE (repeatable)")
	flag.Var(fieldMatches, "field-re", "match a user field by regexp, KEY=PATTERN (repeatable)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	builder := filter.NewBuilder()
	if *level != "" {
		builder.Level(*level)
	}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			logger.Error("invalid -since timestamp.", "error", err)
			os.Exit(2)
		}
		builder.StartTime(t)
	}
	if *until != "" {
		t, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			logger.Error("invalid -until timestamp.", "error", err)
			os.Exit(2)
		}
		builder.EndTime(t)
	}
	if *message != "" {
		builder.Message(*message)
	}
	if *template != "" {
		builder.MessageTemplate(*template)
	}
	if *except != "" {
		builder.Exception(*except)
	}
	if *eventID != "" {
		builder.EventID(entity.StringValue(*eventID))
	}
	if *script != "" {
		builder.Script(*script)
	}
	for k, v := range fieldEquals {
		builder.UserField(k, v)
	}
	for k, v := range fieldMatches {
		builder.UserFieldPattern(k, v)
	}

	pred, err := builder.Build()
	if err != nil {
		logger.Error("invalid filter.", "error", err)
		os.Exit(2)
	}

	src, err := source.Open(*file, *enc)
	if err != nil {
		logger.Error("cannot open source.", "error", err)
		os.Exit(1)
	}

	reader := parser.New(parser.Config{Lenient: *lenient}).Stream(src)
	seq := filter.Apply(reader, pred)
	defer seq.Close()

	matched := 0
	for {
		event, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("parse failed.", "error", err)
			os.Exit(1)
		}
		matched++
		fmt.Println(event)
	}

	logger.Info("done.", "matched", matched, "skipped", reader.Skipped())
}
