package state

import (
	"reflect"
	"testing"
	"time"
)

func newRun(id string, startedAt time.Time, status RunStatus) *Run {
	return &Run{
		ID:            id,
		CurriculumDir: "curricula/wall_jump",
		StartedAt:     startedAt,
		Status:        status,
	}
}

func TestCreateAndGetRun(t *testing.T) {
	db := setupTestDB(t)

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := db.CreateRun(newRun("run-1", started, RunActive)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil")
	}
	if got.CurriculumDir != "curricula/wall_jump" {
		t.Errorf("CurriculumDir = %q", got.CurriculumDir)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Status != RunActive {
		t.Errorf("Status = %q, want active", got.Status)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetRun("missing")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil run, got %+v", got)
	}
}

func TestGetLatestRun(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*Run{
		newRun("old", base, RunCompleted),
		newRun("mid", base.Add(time.Hour), RunActive),
		newRun("new", base.Add(2*time.Hour), RunFailed),
	}
	for _, r := range runs {
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun(%s) failed: %v", r.ID, err)
		}
	}

	latest, err := db.GetLatestRun(nil)
	if err != nil {
		t.Fatalf("GetLatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != "new" {
		t.Errorf("GetLatestRun(nil) = %+v, want run 'new'", latest)
	}

	active := RunActive
	latest, err = db.GetLatestRun(&active)
	if err != nil {
		t.Fatalf("GetLatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != "mid" {
		t.Errorf("GetLatestRun(active) = %+v, want run 'mid'", latest)
	}

	all, err := db.ListRuns(nil)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "new" || all[2].ID != "old" {
		t.Errorf("ListRuns order unexpected: %+v", all)
	}
}

func TestGetLatestRunInDir(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	other := newRun("other", base.Add(2*time.Hour), RunActive)
	other.CurriculumDir = "curricula/walker"
	runs := []*Run{
		newRun("mine", base, RunActive),
		newRun("mine-done", base.Add(time.Hour), RunCompleted),
		other,
	}
	for _, r := range runs {
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun(%s) failed: %v", r.ID, err)
		}
	}

	active := RunActive
	tests := []struct {
		name   string
		dir    string
		status *RunStatus
		want   string
	}{
		{"active in dir", "curricula/wall_jump", &active, "mine"},
		{"any status in dir", "curricula/wall_jump", nil, "mine-done"},
		{"other dir", "curricula/walker", &active, "other"},
		{"unknown dir", "curricula/none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.GetLatestRunInDir(tt.dir, tt.status)
			if err != nil {
				t.Fatalf("GetLatestRunInDir failed: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("GetLatestRunInDir = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("GetLatestRunInDir = %+v, want run %q", got, tt.want)
			}
		})
	}
}

func TestUpdateRun(t *testing.T) {
	db := setupTestDB(t)

	r := newRun("run-1", time.Now().Add(-time.Hour), RunActive)
	if err := db.CreateRun(r); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	r.Status = RunCompleted
	if err := db.UpdateRun(r); err != nil {
		t.Fatalf("UpdateRun failed: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != RunCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if !got.UpdatedAt.After(got.StartedAt) {
		t.Errorf("UpdatedAt %v not after StartedAt %v", got.UpdatedAt, got.StartedAt)
	}
}

func TestSaveAndLoadLessonNums(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(newRun("run-1", time.Now(), RunActive)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	if err := db.SaveLessonNums("run-1", map[string]int{"Brain1": 0, "Brain2": 1}); err != nil {
		t.Fatalf("SaveLessonNums failed: %v", err)
	}
	if err := db.SaveLessonNums("run-1", map[string]int{"Brain1": 2}); err != nil {
		t.Fatalf("SaveLessonNums (update) failed: %v", err)
	}

	got, err := db.LoadLessonNums("run-1")
	if err != nil {
		t.Fatalf("LoadLessonNums failed: %v", err)
	}
	want := map[string]int{"Brain1": 2, "Brain2": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadLessonNums = %v, want %v", got, want)
	}

	empty, err := db.LoadLessonNums("other")
	if err != nil {
		t.Fatalf("LoadLessonNums failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no lessons for unknown run, got %v", empty)
	}
}

func TestSaveAndLoadSmoothedValues(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(newRun("run-1", time.Now(), RunActive)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	if err := db.SaveLessonNums("run-1", map[string]int{"Brain1": 2}); err != nil {
		t.Fatalf("SaveLessonNums failed: %v", err)
	}
	if err := db.SaveSmoothedValues("run-1", map[string]float64{"Brain1": 0.675, "Brain2": 0.3}); err != nil {
		t.Fatalf("SaveSmoothedValues failed: %v", err)
	}

	values, err := db.LoadSmoothedValues("run-1")
	if err != nil {
		t.Fatalf("LoadSmoothedValues failed: %v", err)
	}
	want := map[string]float64{"Brain1": 0.675, "Brain2": 0.3}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("LoadSmoothedValues = %v, want %v", values, want)
	}

	// Saving smoothed values leaves lessons alone; a brain first seen here
	// starts at lesson 0.
	nums, err := db.LoadLessonNums("run-1")
	if err != nil {
		t.Fatalf("LoadLessonNums failed: %v", err)
	}
	if !reflect.DeepEqual(nums, map[string]int{"Brain1": 2, "Brain2": 0}) {
		t.Errorf("LoadLessonNums = %v", nums)
	}
}

func TestLessonEvents(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(newRun("run-1", time.Now(), RunActive)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	events := []*LessonEvent{
		{RunID: "run-1", Brain: "Brain1", FromLesson: 0, ToLesson: 1, Measure: 0.2},
		{RunID: "run-1", Brain: "Brain2", FromLesson: 0, ToLesson: 1, Measure: 0.9},
		{RunID: "run-1", Brain: "Brain1", FromLesson: 1, ToLesson: 2, Measure: 0.6},
	}
	for _, e := range events {
		if err := db.RecordLessonEvent(e); err != nil {
			t.Fatalf("RecordLessonEvent failed: %v", err)
		}
		if e.ID == 0 {
			t.Error("RecordLessonEvent did not assign an ID")
		}
	}

	got, err := db.ListLessonEvents("run-1")
	if err != nil {
		t.Fatalf("ListLessonEvents failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[2].Brain != "Brain1" || got[2].ToLesson != 2 || got[2].Measure != 0.6 {
		t.Errorf("last event = %+v", got[2])
	}
}

func TestPurgeOldRuns(t *testing.T) {
	db := setupTestDB(t)

	old := time.Now().Add(-48 * time.Hour)
	finished := newRun("finished", old, RunCompleted)
	stillActive := newRun("active", old, RunActive)
	recent := newRun("recent", time.Now(), RunCompleted)
	for _, r := range []*Run{finished, stillActive, recent} {
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun(%s) failed: %v", r.ID, err)
		}
	}
	if err := db.RecordLessonEvent(&LessonEvent{RunID: "finished", Brain: "B", ToLesson: 1, CreatedAt: old}); err != nil {
		t.Fatalf("RecordLessonEvent failed: %v", err)
	}

	n, err := db.PurgeOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d runs, want 1", n)
	}

	if r, _ := db.GetRun("finished"); r != nil {
		t.Error("finished run should be purged")
	}
	if r, _ := db.GetRun("active"); r == nil {
		t.Error("active run should be kept")
	}
	events, err := db.ListLessonEvents("finished")
	if err != nil {
		t.Fatalf("ListLessonEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected purged events, got %d", len(events))
	}
}
