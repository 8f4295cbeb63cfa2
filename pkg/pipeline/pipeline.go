// Package pipeline turns a Markdown outline into a stored mind-map image.
//
// The [Coordinator] is the single entry point used by the CLI and the HTTP
// server. One call to [Coordinator.Generate] runs:
//
//  1. Validate: the request must carry Markdown with at least one header
//  2. Analyze: score the outline and derive a viewport from it
//  3. Cache: reuse an earlier render with identical parameters
//  4. Render: run the configured render engine into the temp directory
//  5. Upload: hand the PNG to the storage provider
//  6. Record: append the attempt to the generation history
//
// Generate never returns an error and never panics. Every failure, including
// a recovered panic, becomes a [Result] with Success set to false and a
// machine-readable Code. A failed upload is not a failure: the image was
// rendered, so the Result is successful and carries a Warning.
//
// # Usage
//
//	coord, err := pipeline.Open(ctx, cfg, logger, pipeline.OpenOptions{})
//	if err != nil {
//	    return err
//	}
//	defer coord.Close(ctx)
//
//	res := coord.Generate(ctx, pipeline.Request{
//	    Markdown: "# Roadmap\n## Q1\n- Ship v1",
//	    Quality:  "high",
//	})
//	if !res.Success {
//	    return fmt.Errorf("%s: %s", res.Code, res.Error)
//	}
//	fmt.Println(res.ImageURL)
package pipeline

import (
	"time"

	"github.com/matzehuels/mindmapper/pkg/complexity"
	"github.com/matzehuels/mindmapper/pkg/errors"
	"github.com/matzehuels/mindmapper/pkg/outline"
	"github.com/matzehuels/mindmapper/pkg/render"
	"github.com/matzehuels/mindmapper/pkg/storage"
)

// DefaultTitle names a mind map whose request has no title and whose
// Markdown has no usable first heading.
const DefaultTitle = "Mind Map"

// Request is one generation request. It supports JSON for the HTTP API.
type Request struct {
	Markdown string `json:"markdown"`
	Title    string `json:"title,omitempty"`
	// Quality is low, medium, high or ultra. Empty uses the configured
	// device scale factor.
	Quality string `json:"quality,omitempty"`
	// IncludeImageData adds a base64 data URI of the PNG to the Result.
	IncludeImageData bool `json:"include_image_data,omitempty"`
	// NoCache skips the render cache for both lookup and store.
	NoCache bool `json:"no_cache,omitempty"`
}

// ValidateAndSetDefaults checks the request and fills in the title. It has
// no side effects beyond modifying r.
func (r *Request) ValidateAndSetDefaults() error {
	if err := errors.ValidateMarkdown(r.Markdown); err != nil {
		return err
	}
	if err := errors.ValidateQuality(r.Quality); err != nil {
		return err
	}
	if r.Title == "" {
		r.Title = outline.FirstHeading([]byte(r.Markdown))
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	return nil
}

// Stats records where the time went.
type Stats struct {
	Analyze time.Duration  `json:"analyze"`
	Render  render.Timings `json:"render"`
	Upload  time.Duration  `json:"upload"`
	Total   time.Duration  `json:"total"`
	// SizeBytes is the PNG size.
	SizeBytes int64 `json:"size_bytes"`
}

// Result is the outcome of Generate. It is the only value that crosses the
// package boundary, and it is always non-nil.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`

	// ImageURL is the public URL from the storage provider. Empty when the
	// upload failed.
	ImageURL string `json:"image_url,omitempty"`
	// LocalPath is the PNG on this machine: the stored copy for the local
	// provider, otherwise the rendered file in the temp directory.
	LocalPath string `json:"local_path,omitempty"`
	// ImageData is a data:image/png;base64 URI when requested.
	ImageData string `json:"image_data,omitempty"`

	Storage  *storage.Result      `json:"storage,omitempty"`
	Profile  *complexity.Profile  `json:"profile,omitempty"`
	Viewport *complexity.Viewport `json:"viewport,omitempty"`
	Stats    Stats                `json:"stats"`
	CacheHit bool                 `json:"cache_hit"`
	// Warning describes a non-fatal problem, such as a failed upload.
	Warning string `json:"warning,omitempty"`
}

// fail marks r as failed with err's code and message.
func (r *Result) fail(err error) *Result {
	r.Success = false
	r.Code = string(errors.GetCode(err))
	if r.Code == "" {
		r.Code = string(errors.ErrCodeInternal)
	}
	r.Error = errors.UserMessage(err)
	return r
}

func (r *Result) warn(msg string) {
	if r.Warning == "" {
		r.Warning = msg
		return
	}
	r.Warning += "; " + msg
}
