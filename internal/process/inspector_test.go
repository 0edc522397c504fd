package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/lichlaunch/internal/logging"
	"github.com/Iron-Ham/lichlaunch/internal/testutil"
)

type fakeLister struct {
	out   string
	err   error
	block bool
	calls int
}

func (f *fakeLister) List(ctx context.Context) ([]byte, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, errors.New("signal: killed")
	}
	return []byte(f.out), f.err
}

const table = `  1 /sbin/init
 11 ruby /opt/lich/lich.rbw --login Thorin --detachable-client=8000 --without-frontend
 12 ruby /opt/profanity/profanity.rb --port=8000 --char=Thorin
 13 ruby /opt/lich/lich.rbw --login Someone --detachable-client=8002 --without-frontend
`

func TestInspector_Snapshot(t *testing.T) {
	insp := NewInspector(&fakeLister{out: table}, time.Second, nil)

	snap, err := insp.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	st := snap.Status("thorin")
	if !st.Online || st.Port != 8000 {
		t.Errorf("Status(thorin) = %+v, want online on 8000", st)
	}
	if got := snap.ActivePorts().Sorted(); !slices.Equal(got, []int{8000, 8002}) {
		t.Errorf("ActivePorts() = %v, want [8000 8002]", got)
	}
}

func TestInspector_QueryFailure(t *testing.T) {
	cause := errors.New("ps: not found")
	insp := NewInspector(&fakeLister{err: cause}, time.Second, nil)

	snap, err := insp.Snapshot(context.Background())
	if snap == nil {
		t.Fatal("Snapshot() must return a non-nil snapshot on failure")
	}
	if len(snap.Sessions()) != 0 || len(snap.ActivePorts()) != 0 {
		t.Error("failed query should yield an empty snapshot")
	}

	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("QueryError should unwrap to the cause")
	}
}

func TestInspector_Timeout(t *testing.T) {
	insp := NewInspector(&fakeLister{block: true}, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := insp.Snapshot(context.Background())
	if time.Since(start) > 2*time.Second {
		t.Fatal("Snapshot() did not honor its timeout")
	}

	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded in chain", err)
	}
}

func TestInspector_LogsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.LevelDebug)
	lister := &fakeLister{out: testutil.BackendLine(1, "Thorin", 8001) + "\n" +
		testutil.BackendLine(2, "thorin", 8004) + "\n"}
	insp := NewInspector(lister, time.Second, logger)

	snap, err := insp.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if s, _ := snap.Lookup("Thorin"); s.Port != 8004 {
		t.Errorf("canonical port = %d, want 8004", s.Port)
	}
	out := buf.String()
	if !strings.Contains(out, "multiple backends for one character") || !strings.Contains(out, `"using_port":8004`) {
		t.Errorf("duplicate warning missing from log: %s", out)
	}
}

func TestInspector_LongLineKeepsLaterSessions(t *testing.T) {
	huge := "  50 java -jar app.jar " + strings.Repeat("--opt=value ", 100*1024) + "\n"
	lister := &fakeLister{out: huge + testutil.BackendLine(51, "Thorin", 8000) + "\n"}
	insp := NewInspector(lister, time.Second, nil)

	snap, err := insp.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if st := snap.Status("Thorin"); !st.Online || st.Port != 8000 {
		t.Errorf("Status(Thorin) = %+v, want online on 8000 after a long ps line", st)
	}
}

func TestInspector_SamePortNotLoggedAsDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.LevelDebug)
	lister := &fakeLister{out: "10 sh -c ruby /opt/lich/lich.rbw --login Thorin --detachable-client=8000\n" +
		testutil.BackendLine(11, "Thorin", 8000) + "\n"}
	insp := NewInspector(lister, time.Second, logger)

	if _, err := insp.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if strings.Contains(buf.String(), "multiple backends") {
		t.Errorf("wrapper and child logged as duplicate backends: %s", buf.String())
	}
}

func TestInspector_ListHelpers(t *testing.T) {
	lister := &fakeLister{out: table}
	insp := NewInspector(lister, 0, nil)
	ctx := context.Background()

	sessions, err := insp.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if _, ok := sessions["someone"]; !ok || len(sessions) != 2 {
		t.Errorf("ListSessions() = %v", sessions)
	}

	ports, err := insp.ListActivePorts(ctx)
	if err != nil {
		t.Fatalf("ListActivePorts() error = %v", err)
	}
	if _, ok := ports[8002]; !ok {
		t.Errorf("ListActivePorts() = %v, want 8002 included", ports.Sorted())
	}

	if lister.calls != 2 {
		t.Errorf("each helper should read the table once, got %d reads", lister.calls)
	}
}

func TestInspector_ListHelpersOnFailure(t *testing.T) {
	insp := NewInspector(&fakeLister{err: errors.New("boom")}, 0, nil)

	sessions, err := insp.ListSessions(context.Background())
	if err == nil {
		t.Fatal("ListSessions() should fail")
	}
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("ListSessions() = %v, want empty non-nil map", sessions)
	}
}

func TestPSLister_ListsOwnProcess(t *testing.T) {
	testutil.SkipIfNoPS(t)

	out, err := PSLister{}.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	pid := strconv.Itoa(os.Getpid())
	found := false
	for _, line := range strings.Split(string(out), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == pid {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("ps output does not list the test process %s", pid)
	}
}

func TestPSLister_MissingBinary(t *testing.T) {
	insp := NewInspector(PSLister{Path: filepath.Join(t.TempDir(), "ps")}, time.Second, nil)

	_, err := insp.Snapshot(context.Background())
	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
}
