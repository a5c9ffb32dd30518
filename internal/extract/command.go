package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandExtractor runs an external program to extract text. The file bytes are
// staged to a temporary file whose path is appended to Args; the program's
// stdout is the extracted text. The staging file is removed on every path.
type CommandExtractor struct {
	Command string
	Args    []string
}

// Extract stages data to disk, invokes the command, and returns trimmed stdout.
// A non-zero exit yields an ExtractionError carrying the command's stderr.
func (c CommandExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	if strings.TrimSpace(c.Command) == "" {
		return "", &ExtractionError{FileName: fileName, Err: errors.New("extractor command not configured")}
	}

	tmp, err := os.CreateTemp("", "extract-*"+filepath.Ext(fileName))
	if err != nil {
		return "", &ExtractionError{FileName: fileName, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", &ExtractionError{FileName: fileName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &ExtractionError{FileName: fileName, Err: err}
	}

	args := append(append([]string(nil), c.Args...), tmpPath)
	cmd := exec.CommandContext(ctx, c.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ExtractionError{
			FileName: fileName,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

var _ TextExtractor = CommandExtractor{}
