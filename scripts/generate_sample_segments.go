package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateSampleSegments writes gzipped user_id,segment files for local runs.
// File 1 holds the base fixture (users 1-3 in p1-p3).
// File 2 moves user 3 to p1 and adds users 4 and 5; loaded after file 1 it wins.
func main() {
	dataDir := flag.String("dir", "data/segments", "output directory")
	flag.Parse()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := []struct {
		name  string
		lines []string
	}{
		{
			name: "segments1.csv.gz",
			lines: []string{
				"# user_id,segment",
				"1,p1",
				"2,p2",
				"3,p3",
			},
		},
		{
			name: "segments2.csv.gz",
			lines: []string{
				"3,p1",
				"4,p2",
				"5,p3",
			},
		},
	}

	for _, f := range files {
		filePath := filepath.Join(*dataDir, f.name)

		if err := createSegmentFile(filePath, f.lines); err != nil {
			log.Fatalf("Failed to create %s: %v", f.name, err)
		}

		fmt.Printf("Created %s with %d lines\n", filePath, len(f.lines))
	}

	fmt.Println("\nSample segment files created successfully!")
	fmt.Printf("\nLoad them with SEGMENT_FILE=%s,%s\n",
		filepath.Join(*dataDir, files[0].name),
		filepath.Join(*dataDir, files[1].name))
}

func createSegmentFile(filePath string, lines []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)

	for _, line := range lines {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", line); err != nil {
			return fmt.Errorf("failed to write segment line: %w", err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush gzip stream: %w", err)
	}

	return nil
}
