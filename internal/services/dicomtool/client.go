package dicomtool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FileInfo mirrors the helper's get_info payload.
type FileInfo struct {
	PatientName       string `json:"patient_name"`
	PatientID         string `json:"patient_id"`
	StudyDate         string `json:"study_date"`
	StudyTime         string `json:"study_time"`
	Modality          string `json:"modality"`
	StudyDescription  string `json:"study_description"`
	SeriesDescription string `json:"series_description"`
	HasPixelData      bool   `json:"has_pixel_data"`
	FileSize          int64  `json:"file_size"`
	ImageShape        []int  `json:"image_shape"`
	IsMultiSlice      bool   `json:"is_multi_slice"`
	TotalSlices       int    `json:"total_slices"`
}

// Metadata mirrors the extract_slices metadata block.
type Metadata struct {
	PatientName       string `json:"patient_name"`
	PatientID         string `json:"patient_id"`
	StudyDate         string `json:"study_date"`
	StudyTime         string `json:"study_time"`
	Modality          string `json:"modality"`
	StudyDescription  string `json:"study_description"`
	SeriesDescription string `json:"series_description"`
	InstitutionName   string `json:"institution_name"`
	Manufacturer      string `json:"manufacturer"`
	TotalSlices       int    `json:"total_slices"`
	IsMultiSlice      bool   `json:"is_multi_slice"`
	ImageWidth        int    `json:"image_width"`
	ImageHeight       int    `json:"image_height"`
}

// Slice carries one extracted frame. Data arrives base64 encoded on the wire
// and decodes through encoding/json's []byte handling.
type Slice struct {
	Number int    `json:"slice_number"`
	Data   []byte `json:"image_data"`
	Format string `json:"format"`
}

// ExtractResult is the full extract_slices answer.
type ExtractResult struct {
	Metadata Metadata `json:"metadata"`
	Slices   []Slice  `json:"slices"`
	Total    int      `json:"total_slices_extracted"`
}

// Client defines the helper behaviour required by the importer.
type Client interface {
	Info(ctx context.Context, path string) (*FileInfo, error)
	ExtractSlices(ctx context.Context, path string, maxSlices int) (*ExtractResult, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*CLI)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *CLI) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// CLI wraps the DICOM helper command line.
type CLI struct {
	binary         string
	probeTimeout   time.Duration
	extractTimeout time.Duration
	exec           Executor
}

// New constructs a helper client. Timeouts are given in seconds; zero disables
// the corresponding deadline.
func New(binary string, probeTimeoutSeconds, extractTimeoutSeconds int, opts ...Option) (*CLI, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("dicom helper binary required")
	}
	cli := &CLI{
		binary:         binary,
		probeTimeout:   time.Duration(probeTimeoutSeconds) * time.Second,
		extractTimeout: time.Duration(extractTimeoutSeconds) * time.Second,
		exec:           commandExecutor{},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// Info probes a file for metadata without touching pixel data.
func (c *CLI) Info(ctx context.Context, path string) (*FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file path required")
	}
	out, err := c.run(ctx, c.probeTimeout, "get_info", path)
	if err != nil {
		return nil, err
	}

	var payload struct {
		envelope
		Info FileInfo `json:"info"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("parse get_info output: %w", err)
	}
	if !payload.Success {
		return nil, payload.failure("get_info")
	}
	return &payload.Info, nil
}

// ExtractSlices extracts up to maxSlices frames as PNG payloads.
func (c *CLI) ExtractSlices(ctx context.Context, path string, maxSlices int) (*ExtractResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file path required")
	}
	if maxSlices <= 0 {
		maxSlices = 1
	}
	out, err := c.run(ctx, c.extractTimeout, "extract_slices", path, "PNG", strconv.Itoa(maxSlices))
	if err != nil {
		return nil, err
	}

	var payload struct {
		envelope
		ExtractResult
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("parse extract_slices output: %w", err)
	}
	if !payload.Success {
		return nil, payload.failure("extract_slices")
	}
	result := payload.ExtractResult
	return &result, nil
}

func (c *CLI) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stdout, stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", c.binary, args[0], ctxErr)
		}
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = strings.TrimSpace(string(stdout))
		}
		if detail != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", c.binary, args[0], err, detail)
		}
		return nil, fmt.Errorf("%s %s: %w", c.binary, args[0], err)
	}
	return stdout, nil
}

// envelope carries the success flag every helper answer starts with.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e envelope) failure(verb string) error {
	detail := strings.TrimSpace(e.Error)
	if hint := strings.TrimSpace(e.Message); hint != "" {
		if detail == "" {
			detail = hint
		} else {
			detail = detail + ": " + hint
		}
	}
	if detail == "" {
		detail = "helper reported failure"
	}
	return fmt.Errorf("%s: %s", verb, detail)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

var _ Client = (*CLI)(nil)
