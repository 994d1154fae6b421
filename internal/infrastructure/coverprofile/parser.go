// Package coverprofile parses Go coverage profiles, keeping block positions
// so reports can show which line ranges went unexecuted.
package coverprofile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"covrun/internal/domain"
)

type Parser struct{}

// Parse reads a coverage profile and returns the per-file summary. Repeated
// blocks (overlapping runs in count/atomic mode) keep their highest count.
func (Parser) Parse(path string) (domain.Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Summary{}, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	files := make(map[string][]domain.Block)
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if lineNo == 1 {
			if !strings.HasPrefix(line, "mode:") {
				return domain.Summary{}, fmt.Errorf("invalid coverage mode line")
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, block, err := parseLine(line)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		files[name] = appendBlock(files[name], block)
	}
	if err := scanner.Err(); err != nil {
		return domain.Summary{}, err
	}
	return domain.NewSummary(files), nil
}

func appendBlock(blocks []domain.Block, block domain.Block) []domain.Block {
	for i, b := range blocks {
		if b.StartLine == block.StartLine && b.EndLine == block.EndLine && b.Statements == block.Statements {
			if block.Count > b.Count {
				blocks[i].Count = block.Count
			}
			return blocks
		}
	}
	return append(blocks, block)
}

// parseLine decodes "file:startLine.startCol,endLine.endCol statements count".
func parseLine(line string) (string, domain.Block, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", domain.Block{}, fmt.Errorf("invalid coverage line")
	}

	colon := strings.LastIndexByte(parts[0], ':')
	if colon <= 0 {
		return "", domain.Block{}, fmt.Errorf("invalid position")
	}
	name := parts[0][:colon]
	startLine, endLine, err := parsePositions(parts[0][colon+1:])
	if err != nil {
		return "", domain.Block{}, err
	}

	statements, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", domain.Block{}, fmt.Errorf("invalid statement count")
	}
	count, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", domain.Block{}, fmt.Errorf("invalid count")
	}

	return name, domain.Block{
		StartLine:  startLine,
		EndLine:    endLine,
		Statements: statements,
		Count:      count,
	}, nil
}

func parsePositions(s string) (int, int, error) {
	start, end, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid position")
	}
	startLine, err := parseLineNumber(start)
	if err != nil {
		return 0, 0, err
	}
	endLine, err := parseLineNumber(end)
	if err != nil {
		return 0, 0, err
	}
	return startLine, endLine, nil
}

func parseLineNumber(pos string) (int, error) {
	lineStr, _, ok := strings.Cut(pos, ".")
	if !ok {
		return 0, fmt.Errorf("invalid position")
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line <= 0 {
		return 0, fmt.Errorf("invalid line number")
	}
	return line, nil
}
