// File: internal/scripts/builtin.go

// Package scripts holds the built-in verification scripts. Each one is a fixed
// sequence against a fixed local origin; nothing about them is parameterised
// except the origin override the CLI can apply.
package scripts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xkilldash9x/dashverify/internal/locator"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

// ErrUnknownScript is returned by Lookup for names not in the registry.
var ErrUnknownScript = errors.New("unknown script")

// -- Shared DOM contract --

var (
	loginButton   = locator.ByID("googleLoginBtn")
	dashboardPage = locator.ByID("dashboardPage")
	coursesNav    = locator.ByText("Courses")
	assistantNav  = locator.ByText("AI Assistant")
	coursesList   = locator.ByID("coursesList")
	taskPool      = locator.ByID("taskPoolList")
	calendarCells = locator.ByCSS(".calendar-cell")
	scheduleEdit  = locator.ByID("scheduleEditorSection")
)

const (
	ignoredCourse = "AP Physics"
	ignoredTask   = "Lab Report: Kinematics"
	keptTask      = "Read Chapter 4"
	// targetCell is the zero-based calendar cell the kept task is dropped on.
	targetCell = 40
	// settle lets the schedule editor finish rendering after a section switch.
	settle = time.Second
)

// Dashboard logs in and waits for the assignment cards of the mock data to render.
func Dashboard() verify.Script {
	return verify.Script{
		Name:        "dashboard",
		Description: "Log in and capture the dashboard once assignments are loaded.",
		BaseURL:     "http://localhost:3000",
		Login:       verify.Login(loginButton, dashboardPage),
		Steps: []verify.Step{
			// Mock mode populates assignments after a short delay.
			verify.ExpectWithin(locator.ByCSS(".assignment-card"), locator.Visible(), 30*time.Second),
		},
		Artifact:        "verification/dashboard.png",
		FailureArtifact: "verification/dashboard_failed.png",
	}
}

// VerifyAll is the full end-to-end scenario: ignore a course, confirm its task
// left the pool, then schedule a remaining task by dragging it onto the calendar.
func VerifyAll() verify.Script {
	courseRow := locator.ByCSS("#coursesList > div").Filter(ignoredCourse).First()
	task := taskPool.Locator(locator.ByCSS(".draggable-task")).Filter(keptTask).First()

	return verify.Script{
		Name:        "verify-all",
		Description: "Ignore a course, check the task pool and drag a task onto the calendar.",
		BaseURL:     "http://localhost:8083",
		Viewport:    verify.Viewport{Width: 1280, Height: 1200},
		Login:       verify.Login(loginButton, dashboardPage),
		Steps: []verify.Step{
			// Courses
			verify.Click(coursesNav),
			verify.Expect(coursesList, locator.Visible()),
			verify.Expect(courseRow, locator.Visible()),
			verify.Uncheck(courseRow.Locator(locator.ByCSS("input[type='checkbox']"))),
			verify.Expect(courseRow, locator.ContainsText("IGNORED")),

			// Schedule editor
			verify.Click(assistantNav),
			verify.Pause(settle),
			verify.Expect(taskPool, locator.NotContainsText(ignoredTask)),
			verify.Expect(taskPool, locator.ContainsText(keptTask)),

			// Drag and drop
			verify.DragTo(task, calendarCells.Nth(targetCell)),
			verify.Expect(locator.ByCSS(".calendar-event"), locator.ContainsText(keptTask)),
		},
		Artifact:        "verification/final_verify.png",
		FailureArtifact: "verification/failed_verify.png",
	}
}

// Features checks that the course list and the schedule editor render.
func Features() verify.Script {
	return verify.Script{
		Name:        "features",
		Description: "Check the course checkboxes and the schedule editor layout.",
		BaseURL:     "http://localhost:8082",
		Login:       verify.Login(loginButton, dashboardPage).Within(10 * time.Second),
		Steps: []verify.Step{
			verify.Click(coursesNav),
			verify.Expect(coursesList, locator.Visible()),
			verify.Expect(locator.ByCSS("#coursesList input[type='checkbox']").First(), locator.Visible()),
			verify.Screenshot("verification/courses_page.png"),

			verify.Click(assistantNav),
			verify.Expect(scheduleEdit, locator.Visible()),
			verify.Expect(locator.ByCSS(".calendar-grid"), locator.Visible()),
			verify.Expect(locator.ByCSS(".task-pool"), locator.Visible()),
		},
		Artifact:        "verification/schedule_editor.png",
		FailureArtifact: "verification/schedule_editor_failed.png",
	}
}

// FeaturesDesktop captures the schedule editor at a desktop viewport.
func FeaturesDesktop() verify.Script {
	return verify.Script{
		Name:        "features-desktop",
		Description: "Capture the schedule editor at 1280x800.",
		BaseURL:     "http://localhost:8082",
		Viewport:    verify.Viewport{Width: 1280, Height: 800},
		Login:       verify.Login(loginButton, dashboardPage),
		Steps: []verify.Step{
			verify.Click(assistantNav),
			verify.Expect(scheduleEdit, locator.Visible()),
			verify.Pause(settle),
		},
		Artifact:        "verification/schedule_desktop.png",
		FailureArtifact: "verification/schedule_desktop_failed.png",
	}
}

// -- Registry --

var registry = []func() verify.Script{
	Dashboard,
	VerifyAll,
	Features,
	FeaturesDesktop,
}

// All returns fresh copies of every built-in script in registry order.
func All() []verify.Script {
	out := make([]verify.Script, 0, len(registry))
	for _, build := range registry {
		out = append(out, build())
	}
	return out
}

// Names lists the built-in script names in registry order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range All() {
		names = append(names, s.Name)
	}
	return names
}

// Lookup returns the script called name.
func Lookup(name string) (verify.Script, error) {
	for _, s := range All() {
		if s.Name == name {
			return s, nil
		}
	}
	return verify.Script{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownScript, name, strings.Join(Names(), ", "))
}

// Select resolves names to scripts, keeping registry order and dropping duplicates.
// With all set, or no names at all, every script is returned.
func Select(names []string, all bool) ([]verify.Script, error) {
	if all || len(names) == 0 {
		return All(), nil
	}

	order := make(map[string]int, len(registry))
	for i, n := range Names() {
		order[n] = i
	}

	seen := make(map[string]bool, len(names))
	var selected []verify.Script
	var errs []error
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		s, err := Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		selected = append(selected, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return order[selected[i].Name] < order[selected[j].Name]
	})
	return selected, nil
}
