package verify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Script is one fixed, parameterless verification sequence ending in a screenshot.
type Script struct {
	Name        string
	Description string
	BaseURL     string
	Viewport    Viewport
	// Login always runs first; no step may assert post-login state before it.
	Login *LoginStep
	Steps []Step
	// Artifact is written after every step passed.
	Artifact string
	// FailureArtifact is written when a step fails after the page loaded.
	// Empty means Artifact's name with a "_failed" suffix.
	FailureArtifact string
}

// Validate rejects scripts the runner cannot execute.
func (s Script) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("base URL %q must be http(s)", s.BaseURL))
	}
	if s.Login == nil {
		errs = append(errs, errors.New("login step is required"))
	} else if err := s.Login.validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(s.Artifact) == "" {
		errs = append(errs, errors.New("success artifact path is required"))
	}
	if s.Viewport.Width < 0 || s.Viewport.Height < 0 {
		errs = append(errs, errors.New("viewport dimensions must not be negative"))
	}
	for i, step := range s.Steps {
		if step == nil {
			errs = append(errs, fmt.Errorf("step %d is nil", i))
			continue
		}
		if v, ok := step.(validator); ok {
			if err := v.validate(); err != nil {
				errs = append(errs, fmt.Errorf("step %d (%s): %w", i, step.Name(), err))
			}
		}
	}
	if s.Artifact != "" && s.FailurePath() == s.Artifact {
		errs = append(errs, errors.New("failure artifact must differ from the success artifact"))
	}
	return errors.Join(errs...)
}

// FailurePath is where the failure screenshot goes.
func (s Script) FailurePath() string {
	if s.FailureArtifact != "" {
		return s.FailureArtifact
	}
	ext := filepath.Ext(s.Artifact)
	return strings.TrimSuffix(s.Artifact, ext) + "_failed" + ext
}

// WithBaseURL returns a copy of the script aimed at another origin.
func (s Script) WithBaseURL(url string) Script {
	if url != "" {
		s.BaseURL = url
	}
	return s
}
