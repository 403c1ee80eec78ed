//go:build !cgo

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// cliRecognizer pipes each image through the tesseract binary.
type cliRecognizer struct {
	binary string
}

// NewTesseract returns a Recognizer that shells out to the tesseract CLI found on PATH.
func NewTesseract() Recognizer {
	return &cliRecognizer{binary: "tesseract"}
}

func (r *cliRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		return "", fmt.Errorf("tesseract not installed: %w", err)
	}
	cmd := exec.CommandContext(ctx, path, "stdin", "stdout", "-l", language)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
