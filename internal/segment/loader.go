package segment

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped segment files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based segment loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "segment-loader").Logger(),
	}
}

// Load reads a gzipped segment file and returns a Table.
// The file is expected to contain one "user_id,segment" pair per line.
func (l *fileLoader) Load(ctx context.Context, path string) (Table, error) {
	l.logger.Info().Str("file", path).Msg("loading segment file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open segment file")
		return nil, fmt.Errorf("failed to open segment file %s: %w", path, err)
	}
	defer file.Close()

	table, err := readTable(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read segment file")
		return nil, fmt.Errorf("failed to read segment file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("users_loaded", table.Size()).
		Msg("segment file loaded successfully")

	return table, nil
}

// readTable decodes a gzipped "user_id,segment" stream.
// Blank lines and lines starting with '#' are skipped.
func readTable(ctx context.Context, r io.Reader) (Table, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	table := NewMapTable(1024).(*mapTable)

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%100_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		userID, segment, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		table.Set(userID, segment)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning segment data: %w", err)
	}

	return table, nil
}

// parseEntry splits a "user_id,segment" line.
func parseEntry(line string) (int64, string, error) {
	idPart, segment, found := strings.Cut(line, ",")
	if !found {
		return 0, "", fmt.Errorf("invalid segment entry %q: expected user_id,segment", line)
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid user id in entry %q: %w", line, err)
	}

	segment = strings.TrimSpace(segment)
	if segment == "" {
		return 0, "", fmt.Errorf("empty segment in entry %q", line)
	}

	return userID, segment, nil
}
