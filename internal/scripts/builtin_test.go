package scripts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dashverify/internal/verify"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"dashboard", "verify-all", "features", "features-desktop"}, Names())

	for _, s := range All() {
		t.Run(s.Name, func(t *testing.T) {
			assert.NoError(t, s.Validate())
			assert.NotEmpty(t, s.Description)
		})
	}
}

func TestBuiltinScripts(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		artifact string
		failure  string
		viewport verify.Viewport
		steps    int
	}{
		{"dashboard", "http://localhost:3000", "verification/dashboard.png", "verification/dashboard_failed.png", verify.Viewport{}, 1},
		{"verify-all", "http://localhost:8083", "verification/final_verify.png", "verification/failed_verify.png", verify.Viewport{Width: 1280, Height: 1200}, 11},
		{"features", "http://localhost:8082", "verification/schedule_editor.png", "verification/schedule_editor_failed.png", verify.Viewport{}, 8},
		{"features-desktop", "http://localhost:8082", "verification/schedule_desktop.png", "verification/schedule_desktop_failed.png", verify.Viewport{Width: 1280, Height: 800}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.origin, s.BaseURL)
			assert.Equal(t, tt.artifact, s.Artifact)
			assert.Equal(t, tt.failure, s.FailurePath())
			assert.Equal(t, tt.viewport, s.Viewport)
			assert.Len(t, s.Steps, tt.steps)
			require.NotNil(t, s.Login)
			assert.Equal(t, "login via css=#googleLoginBtn", s.Login.Name())
		})
	}
}

func TestVerifyAllSequence(t *testing.T) {
	var names []string
	for _, step := range VerifyAll().Steps {
		names = append(names, step.Name())
	}
	assert.Equal(t, []string{
		"click text=Courses",
		"expect css=#coursesList visible",
		`expect css=#coursesList > div >> has-text="AP Physics" >> nth=0 visible`,
		`uncheck css=#coursesList > div >> has-text="AP Physics" >> nth=0 >> css=input[type='checkbox']`,
		`expect css=#coursesList > div >> has-text="AP Physics" >> nth=0 contains_text "IGNORED"`,
		"click text=AI Assistant",
		"pause 1s",
		`expect css=#taskPoolList not_contains_text "Lab Report: Kinematics"`,
		`expect css=#taskPoolList contains_text "Read Chapter 4"`,
		`drag css=#taskPoolList >> css=.draggable-task >> has-text="Read Chapter 4" >> nth=0 onto css=.calendar-cell >> nth=40`,
		`expect css=.calendar-event contains_text "Read Chapter 4"`,
	}, names)
}

func TestFeaturesCheckpoint(t *testing.T) {
	var checkpoints []string
	for _, step := range Features().Steps {
		if path, ok := strings.CutPrefix(step.Name(), "screenshot "); ok {
			checkpoints = append(checkpoints, path)
		}
	}
	assert.Equal(t, []string{"verification/courses_page.png"}, checkpoints)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownScript)
	assert.Contains(t, err.Error(), "verify-all")
}

func TestSelect(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		got, err := Select([]string{"dashboard"}, true)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("registry order without duplicates", func(t *testing.T) {
		got, err := Select([]string{"features-desktop", "dashboard", "features-desktop"}, false)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "dashboard", got[0].Name)
		assert.Equal(t, "features-desktop", got[1].Name)
	})

	t.Run("unknown names are all reported", func(t *testing.T) {
		_, err := Select([]string{"a", "dashboard", "b"}, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownScript)
		assert.Contains(t, err.Error(), `"a"`)
		assert.Contains(t, err.Error(), `"b"`)
	})
}

func TestScriptsAreIndependentCopies(t *testing.T) {
	a := VerifyAll()
	a.Steps[0] = nil
	a.Login.Timeout = 1

	b := VerifyAll()
	assert.NotNil(t, b.Steps[0])
	assert.Zero(t, b.Login.Timeout)
}
