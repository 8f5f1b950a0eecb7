package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/spf13/cobra"
)

var requiredViewFields = []string{"name", "email", "jobTitle", "company", "status", "appliedAt", "resumeUrl"}

// SmokeOptions configures a smoke run.
type SmokeOptions struct {
	BaseURL    string
	JobID      string
	ResumePath string
	Timeout    time.Duration
}

// SmokeResult reports what a smoke run observed.
type SmokeResult struct {
	TrackToken string
	ResumeURL  string
	View       map[string]any
}

// NewSmokeCommand creates the smoke command.
func NewSmokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := SmokeOptions{}
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Submit a quick-apply and verify the track view end to end",
		Long: `Submits an application for --job-id, resolves the returned track token,
checks that every required field of the track view is present and downloads
the resume to confirm it matches the uploaded bytes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := RunSmoke(cmd.Context(), http.DefaultClient, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Verbose {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				_ = enc.Encode(res.View)
			}
			fmt.Fprintf(out, "ok token=%s resume=%s\n", res.TrackToken, res.ResumeURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&opts.JobID, "job-id", "", "job to apply to")
	cmd.Flags().StringVar(&opts.ResumePath, "resume", "", "resume file to upload (default: generated PDF)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall timeout")
	_ = cmd.MarkFlagRequired("job-id")
	return cmd
}

// RunSmoke performs the submit, track and download round trip.
func RunSmoke(ctx context.Context, client *http.Client, opts SmokeOptions) (SmokeResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	base := strings.TrimRight(opts.BaseURL, "/")

	fileName, resume, err := smokeResume(opts.ResumePath)
	if err != nil {
		return SmokeResult{}, err
	}

	token, err := smokeSubmit(ctx, client, base, opts.JobID, fileName, resume)
	if err != nil {
		return SmokeResult{}, err
	}
	view, err := smokeTrack(ctx, client, base, token)
	if err != nil {
		return SmokeResult{}, err
	}

	resumeURL, _ := view["resumeUrl"].(string)
	got, err := smokeGet(ctx, client, resolveURL(base, resumeURL))
	if err != nil {
		return SmokeResult{}, fmt.Errorf("download resume: %w", err)
	}
	if !bytes.Equal(got, resume) {
		return SmokeResult{}, fmt.Errorf("resume round trip mismatch: sent %d bytes, got %d", len(resume), len(got))
	}

	return SmokeResult{TrackToken: token, ResumeURL: resumeURL, View: view}, nil
}

func smokeResume(path string) (string, []byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("read resume: %w", err)
		}
		return filepath.Base(path), data, nil
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Smoke Test Applicant")
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, "Generated by qactl smoke at "+time.Now().UTC().Format(time.RFC3339), "", "L", false)
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return "", nil, fmt.Errorf("render resume: %w", err)
	}
	return "smoke-resume.pdf", buf.Bytes(), nil
}

func smokeSubmit(ctx context.Context, client *http.Client, base, jobID, fileName string, resume []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"name":    "Smoke Test",
		"email":   "smoke@example.com",
		"phone":   "555-0100",
		"message": "qactl smoke run",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", err
		}
	}
	part, err := w.CreateFormFile("resume", fileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(resume); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	endpoint := base + "/api/v1/jobs/" + url.PathEscape(jobID) + "/quick-apply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("submit: expected 201, got %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var created struct {
		Success    bool   `json:"success"`
		TrackToken string `json:"trackToken"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("submit: decode response: %w", err)
	}
	if !created.Success || created.TrackToken == "" {
		return "", errors.New("submit: response carries no track token")
	}
	return created.TrackToken, nil
}

func smokeTrack(ctx context.Context, client *http.Client, base, token string) (map[string]any, error) {
	raw, err := smokeGet(ctx, client, base+"/api/v1/track/"+url.PathEscape(token))
	if err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}
	var view map[string]any
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("track: decode view: %w", err)
	}
	var missing []string
	for _, field := range requiredViewFields {
		if s, _ := view[field].(string); strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("track: view missing %s", strings.Join(missing, ", "))
	}
	return view, nil
}

func smokeGet(ctx context.Context, client *http.Client, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}
	return raw, nil
}

// resolveURL makes relative resume URLs absolute against base.
func resolveURL(base, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}
