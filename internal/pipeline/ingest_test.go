package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-usage-stats/internal/model"
)

var day = time.Date(2024, 7, 19, 9, 5, 0, 0, time.UTC)

func TestIngestHourlyAppendsNewHour(t *testing.T) {
	st := &memStore{}
	st.seed(t, model.TaskHourlyConnection,
		mustDoc(t, []string{"hour", "node1"}, []any{"2024-07-19T08:00:00Z", int64(100)}))

	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.HourlyURL(day): ok("hour,node1\n2024-07-19T08:00:00Z,100\n2024-07-19T09:00:00Z,150\n"),
	}}
	ing := NewIngestor(f, st, src, NewRunTracker(st))

	res, err := ing.IngestHourly(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].Outcome != model.RunAppended || res.Tasks[0].RowsAdded != 1 {
		t.Errorf("Tasks = %+v", res.Tasks)
	}

	latest, err := st.LatestTask(context.Background(), model.TaskHourlyConnection)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(latest.Result)
	want := `{"hour":["2024-07-19T08:00:00Z","2024-07-19T09:00:00Z"],"node1":[100,150]}`
	if string(b) != want {
		t.Errorf("stored = %s\nwant     %s", b, want)
	}
	if latest.RunID != res.RunID || latest.Status != model.StatusSuccess {
		t.Errorf("latest = %+v", latest)
	}
	if st.rowCount() != 2 {
		t.Errorf("rows = %d, want 2 (append-only)", st.rowCount())
	}
	if len(st.runs) != 1 || st.runs[0].Outcome != model.RunAppended {
		t.Errorf("runs = %+v", st.runs)
	}
}

func TestIngestHourlyFreshDayReplaces(t *testing.T) {
	st := &memStore{}
	st.seed(t, model.TaskHourlyConnection,
		mustDoc(t, []string{"hour", "node1"}, []any{"2024-07-18T23:00:00Z", int64(9)}))

	next := time.Date(2024, 7, 19, 1, 0, 0, 0, time.UTC)
	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.HourlyURL(next): ok("hour,node1\n2024-07-19T00:00:00Z,5\n2024-07-19T01:00:00Z,6\n"),
	}}
	ing := NewIngestor(f, st, src, nil)

	res, err := ing.IngestHourly(context.Background(), next)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tasks[0].Outcome != model.RunReplaced {
		t.Errorf("outcome = %q, want replaced", res.Tasks[0].Outcome)
	}
	latest, _ := st.LatestTask(context.Background(), model.TaskHourlyConnection)
	if latest.Result.Len() != 2 {
		t.Errorf("stored rows = %d, want 2", latest.Result.Len())
	}
	if k, _ := latest.Result.LastKey(); k != "2024-07-19T01:00:00Z" {
		t.Errorf("LastKey = %q", k)
	}
}

func TestIngestHourlyNoNewData(t *testing.T) {
	st := &memStore{}
	st.seed(t, model.TaskHourlyConnection,
		mustDoc(t, []string{"hour", "node1"}, []any{"2024-07-19T09:00:00Z", int64(1)}))

	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.HourlyURL(day): ok("hour,node1\n2024-07-19T09:00:00Z,1\n"),
	}}
	ing := NewIngestor(f, st, src, nil)

	res, err := ing.IngestHourly(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	if res.Wrote() || res.Tasks[0].Outcome != model.RunNoData {
		t.Errorf("Tasks = %+v", res.Tasks)
	}
	if st.inserts != 0 {
		t.Errorf("inserts = %d, want 0", st.inserts)
	}
}

func TestIngestHourlyErrorStatus(t *testing.T) {
	st := &memStore{}
	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.HourlyURL(day): {StatusCode: 404, Body: []byte("not found")},
	}}
	ing := NewIngestor(f, st, src, NewRunTracker(st))

	_, err := ing.IngestHourly(context.Background(), day)
	if !errors.Is(err, ErrSourceNotOK) {
		t.Fatalf("err = %v, want ErrSourceNotOK", err)
	}
	if st.rowCount() != 0 {
		t.Errorf("rows = %d, want 0", st.rowCount())
	}
	if len(st.runs) != 1 || st.runs[0].Outcome != model.RunFailed || st.runs[0].Error == "" {
		t.Errorf("runs = %+v", st.runs)
	}
}

func TestIngestMonthlyWritesBoth(t *testing.T) {
	st := &memStore{}
	st.seed(t, model.TaskMonthlyDownloads,
		mustDoc(t, []string{"month", "downloads"}, []any{"2024-05", int64(10)}))

	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.MonthlyDownloadsURL():   ok(monthlyCSV),
		src.MonthlySubmissionsURL(): ok("month,submissions\n2024-06,3\n2024-07,4\n"),
	}}
	ing := NewIngestor(f, st, src, NewRunTracker(st))

	res, err := ing.IngestMonthly(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.inserts != 1 {
		t.Errorf("inserts = %d, want one atomic insert", st.inserts)
	}

	downloads, _ := st.LatestTask(context.Background(), model.TaskMonthlyDownloads)
	if downloads.Result.Len() != 3 {
		t.Errorf("downloads rows = %d, want 3", downloads.Result.Len())
	}
	submissions, _ := st.LatestTask(context.Background(), model.TaskMonthlySubmission)
	if submissions.Result.Len() != 2 {
		t.Errorf("submissions rows = %d, want 2", submissions.Result.Len())
	}
	if downloads.RunID != res.RunID || submissions.RunID != res.RunID {
		t.Error("task rows of one run must share its run id")
	}

	outcomes := map[model.TaskType]string{}
	for _, task := range res.Tasks {
		outcomes[task.TaskType] = task.Outcome
	}
	if outcomes[model.TaskMonthlyDownloads] != model.RunAppended || outcomes[model.TaskMonthlySubmission] != model.RunReplaced {
		t.Errorf("outcomes = %v", outcomes)
	}
	if len(st.runs) != 2 {
		t.Errorf("runs = %d, want 2", len(st.runs))
	}
}

func TestIngestMonthlyFetchFailureWritesNothing(t *testing.T) {
	st := &memStore{}
	src := testSources()
	f := &stubFetcher{
		responses: map[string]*FetchResponse{src.MonthlyDownloadsURL(): ok(monthlyCSV)},
		errs:      map[string]error{src.MonthlySubmissionsURL(): ErrFetchUnavailable},
	}
	ing := NewIngestor(f, st, src, NewRunTracker(st))

	res, err := ing.IngestMonthly(context.Background())
	if !errors.Is(err, ErrFetchUnavailable) {
		t.Fatalf("err = %v, want ErrFetchUnavailable", err)
	}
	if st.rowCount() != 0 {
		t.Errorf("rows = %d, want 0", st.rowCount())
	}
	for _, task := range res.Tasks {
		if task.Outcome != model.RunFailed {
			t.Errorf("%s outcome = %q", task.TaskType, task.Outcome)
		}
	}
}

func TestIngestMonthlyMalformedFeed(t *testing.T) {
	st := &memStore{}
	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.MonthlyDownloadsURL():   ok("month,downloads\n2024-07,many\n"),
		src.MonthlySubmissionsURL(): ok("month,submissions\n2024-07,4\n"),
	}}
	ing := NewIngestor(f, st, src, nil)

	if _, err := ing.IngestMonthly(context.Background()); !errors.Is(err, ErrMalformedCSV) {
		t.Fatalf("err = %v, want ErrMalformedCSV", err)
	}
	if st.rowCount() != 0 {
		t.Errorf("rows = %d, want 0", st.rowCount())
	}
}

func TestIngestStoreFailure(t *testing.T) {
	st := &memStore{insertErr: errors.New("disk full")}
	src := testSources()
	f := &stubFetcher{responses: map[string]*FetchResponse{
		src.HourlyURL(day): ok("hour,node1\n2024-07-19T09:00:00Z,1\n"),
	}}
	ing := NewIngestor(f, st, src, nil)

	if _, err := ing.IngestHourly(context.Background(), day); err == nil {
		t.Fatal("want the store error")
	}
}

func TestDifferByTaskType(t *testing.T) {
	const feed = "hour,node1\n2024-07-19T08:00:00Z,1\n2024-07-19T09:00:00Z,2\n"
	const marker = "2024-07-18T09:00:00Z"

	tests := []struct {
		taskType model.TaskType
		wantMode model.DeltaMode
	}{
		// A new day replaces the hourly table.
		{model.TaskHourlyConnection, model.ModeReplace},
		// Monthly feeds append whatever sorts after the stored key.
		{model.TaskMonthlyDownloads, model.ModeAppend},
		{model.TaskMonthlySubmission, model.ModeAppend},
	}
	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			delta, err := differ(tt.taskType)(feed, marker)
			if err != nil {
				t.Fatal(err)
			}
			if delta.Mode != tt.wantMode || len(delta.Rows) != 2 {
				t.Errorf("delta = %+v, want mode %v with 2 rows", delta, tt.wantMode)
			}
		})
	}
}
