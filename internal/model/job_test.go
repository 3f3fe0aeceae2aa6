package model

import (
	"reflect"
	"testing"
)

func TestJob_Advance(t *testing.T) {
	job := NewJob("job-1", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	if job.Status != JobStatusPending {
		t.Fatalf("Expected new job to be Pending, got %s", job.Status)
	}

	steps := []JobStatus{JobStatusExtracting, JobStatusDownloading, JobStatusTranscoding, JobStatusEmbedding, JobStatusDone}
	for _, step := range steps {
		if !job.Advance(step) {
			t.Fatalf("Expected advance to %s to succeed", step)
		}
	}

	if job.Percent != 100 {
		t.Errorf("Expected Done job to report 100%%, got %d", job.Percent)
	}
	if job.FinishedAt.IsZero() {
		t.Error("Expected FinishedAt to be set")
	}
	if job.Advance(JobStatusFailed) {
		t.Error("Expected finished job to refuse further transitions")
	}
}

func TestJob_SetPercentIsMonotonic(t *testing.T) {
	job := NewJob("job-1", "src")

	tests := []struct {
		input    int
		changed  bool
		expected int
	}{
		{10, true, 10},
		{5, false, 10},
		{10, false, 10},
		{55, true, 55},
		{150, true, 100},
		{-3, false, 100},
	}

	for _, test := range tests {
		changed := job.SetPercent(test.input)
		if changed != test.changed {
			t.Errorf("SetPercent(%d) changed = %v, expected %v", test.input, changed, test.changed)
		}
		if job.Percent != test.expected {
			t.Errorf("SetPercent(%d) percent = %d, expected %d", test.input, job.Percent, test.expected)
		}
	}
}

func TestJob_GetDisplayTitle(t *testing.T) {
	job := NewJob("job-1", "https://youtu.be/abc")
	if got := job.GetDisplayTitle(); got != "https://youtu.be/abc" {
		t.Errorf("Expected source as display title, got %q", got)
	}

	job.Title = "Song"
	if got := job.GetDisplayTitle(); got != "Song" {
		t.Errorf("Expected title as display title, got %q", got)
	}
}

func TestClientProfile_Args(t *testing.T) {
	tests := []struct {
		name     string
		profile  ClientProfile
		cookies  string
		expected []string
	}{
		{
			name:     "android with cookies",
			profile:  ClientProfile{Name: "android", PlayerClient: "android", UserAgent: "ua", UseCookies: true},
			cookies:  "/etc/cookies.txt",
			expected: []string{"--extractor-args", "youtube:player_client=android", "--user-agent", "ua", "--cookies", "/etc/cookies.txt"},
		},
		{
			name:     "cookies allowed but none configured",
			profile:  ClientProfile{Name: "tv", PlayerClient: "tv_embedded", UseCookies: true},
			expected: []string{"--extractor-args", "youtube:player_client=tv_embedded"},
		},
		{
			name:    "minimal never sends cookies",
			profile: ClientProfile{Name: "minimal"},
			cookies: "/etc/cookies.txt",
		},
	}

	for _, test := range tests {
		result := test.profile.Args(test.cookies)
		if len(result) == 0 && len(test.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(result, test.expected) {
			t.Errorf("%s: Args() = %v, expected %v", test.name, result, test.expected)
		}
	}
}

func TestDefaultProfilesOrder(t *testing.T) {
	profiles := DefaultProfiles()
	expected := []string{ProfileNameDefault, ProfileNameAndroid, ProfileNameTV, ProfileNameMinimal}

	if len(profiles) != len(expected) {
		t.Fatalf("Expected %d profiles, got %d", len(expected), len(profiles))
	}
	for i, name := range expected {
		if profiles[i].Name != name {
			t.Errorf("Profile %d: expected %s, got %s", i, name, profiles[i].Name)
		}
	}
	if profiles[len(profiles)-1].UseCookies {
		t.Error("Minimal profile must not use cookies")
	}
}
