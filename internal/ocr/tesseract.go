package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/geometry"
)

// wordLevel is the TSV level of word rows.
const wordLevel = 5

// TesseractConfig configures the tesseract command line.
type TesseractConfig struct {
	Command  string
	Language string
	PSM      int // page segmentation mode 1..13; zero means 3
	TempDir  string
}

// Tesseract runs the tesseract binary and parses its TSV output.
type Tesseract struct {
	cfg TesseractConfig
	bin string
	log logrus.FieldLogger
}

// NewTesseract resolves the tesseract binary. It fails with ErrUnavailable
// when the command cannot be found.
func NewTesseract(cfg TesseractConfig, log logrus.FieldLogger) (*Tesseract, error) {
	if cfg.Command == "" {
		cfg.Command = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PSM == 0 {
		cfg.PSM = 3
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	bin, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Tesseract{cfg: cfg, bin: bin, log: log}, nil
}

// Recognize writes img to a temporary PNG and runs tesseract over it.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	f, err := os.CreateTemp(t.cfg.TempDir, "screenlens_*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, t.bin, path, "stdout",
		"-l", t.cfg.Language,
		"--psm", strconv.Itoa(t.cfg.PSM),
		"tsv",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract error: %v, output: %s", err, strings.TrimSpace(stderr.String()))
	}

	words, err := ParseTSV(&stdout)
	if err != nil {
		return nil, err
	}
	t.log.WithField("words", len(words)).Debug("tesseract finished")
	return NewResult(words), nil
}

// ParseTSV reads tesseract TSV output and returns word rows in emission
// order. Tesseract restarts line_num inside every block and paragraph, so
// the (block, paragraph, line) triple is mapped to a sequential index.
func ParseTSV(r io.Reader) ([]Word, error) {
	type lineKey struct{ block, par, line int }

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	indexOf := make(map[lineKey]int)
	var words []Word
	header := true
	for sc.Scan() {
		row := sc.Text()
		if header {
			header = false
			if strings.HasPrefix(row, "level") {
				continue
			}
		}
		fields := strings.Split(row, "\t")
		if len(fields) < 12 {
			continue
		}

		nums := make([]int, 10)
		for i := range nums {
			n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
			if err != nil {
				return nil, fmt.Errorf("parse tsv field %d %q: %w", i, fields[i], err)
			}
			nums[i] = n
		}
		if nums[0] != wordLevel {
			continue
		}

		text := strings.TrimSpace(strings.Join(fields[11:], "\t"))
		if text == "" {
			continue
		}

		key := lineKey{block: nums[2], par: nums[3], line: nums[4]}
		idx, ok := indexOf[key]
		if !ok {
			idx = len(indexOf)
			indexOf[key] = idx
		}

		words = append(words, Word{
			Text:      text,
			BBox:      geometry.NewBox(nums[6], nums[7], nums[8], nums[9]),
			LineIndex: idx,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}
	return words, nil
}
