package spool

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return st
}

func TestPutAndListPending(t *testing.T) {
	st := openStore(t)

	id, err := st.Put([]byte(`{"event":"session_start"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	refs, err := st.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("ListPending: got %d refs, want 1", len(refs))
	}
	if refs[0].ID != id {
		t.Errorf("ID: got %q, want %q", refs[0].ID, id)
	}
	if refs[0].AttemptCount != 0 {
		t.Errorf("AttemptCount: got %d, want 0", refs[0].AttemptCount)
	}
	if !refs[0].NextEligible.Equal(refs[0].CreatedAt) {
		t.Errorf("NextEligible: got %v, want CreatedAt %v", refs[0].NextEligible, refs[0].CreatedAt)
	}
}

func TestListPending_CreationOrder(t *testing.T) {
	st := openStore(t)

	// Distinct creation timestamps so the order is unambiguous.
	base := time.Now().UTC()
	ids := make([]string, 3)
	for i := range ids {
		st.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		id, err := st.Put([]byte{byte(i)})
		if err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
		ids[i] = id
	}

	refs, err := st.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("ListPending: got %d refs, want 3", len(refs))
	}
	for i, ref := range refs {
		if ref.ID != ids[i] {
			t.Errorf("refs[%d].ID: got %q, want %q", i, ref.ID, ids[i])
		}
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	st := openStore(t)

	want := []byte("opaque payload \x00\x01\x02")
	id, err := st.Put(want)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := st.Payload(id)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Payload: got %q, want %q", got, want)
	}
}

func TestPayload_NotFound(t *testing.T) {
	st := openStore(t)
	if _, err := st.Payload("no-such-id"); err != ErrNotFound {
		t.Errorf("Payload: got err %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	st := openStore(t)

	id, err := st.Put([]byte("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	refs, err := st.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("ListPending after delete: got %d refs, want 0", len(refs))
	}

	// Deleting again is a no-op, not an error.
	if err := st.Delete(id); err != nil {
		t.Errorf("Delete twice: %v", err)
	}
}

func TestUpdateMeta_Persists(t *testing.T) {
	st := openStore(t)

	id, err := st.Put([]byte("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	next := time.Now().Add(90 * time.Second).UTC()
	if err := st.UpdateMeta(id, 3, next); err != nil {
		t.Fatalf("UpdateMeta: %v", err)
	}

	// Reopen to prove the metadata survived, not just the in-memory index.
	st2, err := Open(st.Dir())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	refs, err := st2.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("ListPending: got %d refs, want 1", len(refs))
	}
	if refs[0].AttemptCount != 3 {
		t.Errorf("AttemptCount: got %d, want 3", refs[0].AttemptCount)
	}
	if !refs[0].NextEligible.Equal(next) {
		t.Errorf("NextEligible: got %v, want %v", refs[0].NextEligible, next)
	}

	// Payload untouched by the metadata rewrite.
	payload, err := st2.Payload(id)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if string(payload) != "payload" {
		t.Errorf("Payload after UpdateMeta: got %q", payload)
	}
}

func TestOpen_SweepsTempFiles(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "00000000000000000001-x.json.tmp")
	if err := os.WriteFile(tmp, []byte("torn write"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	st, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temp file still present after Open")
	}

	refs, err := st.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("ListPending: got %d refs, want 0", len(refs))
	}
}

func TestListPending_SkipsCorruptEnvelope(t *testing.T) {
	st := openStore(t)

	if _, err := st.Put([]byte("good")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	bad := filepath.Join(st.Dir(), "00000000000000000000-bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt envelope: %v", err)
	}

	refs, err := st.ListPending()
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("ListPending: got %d refs, want 1 (corrupt skipped)", len(refs))
	}

	// The corrupt file stays on disk for inspection.
	if _, err := os.Stat(bad); err != nil {
		t.Errorf("corrupt envelope removed: %v", err)
	}
}

func TestPending_CountsEnvelopesOnly(t *testing.T) {
	st := openStore(t)

	for i := 0; i < 3; i++ {
		if _, err := st.Put([]byte{byte(i)}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	// A stray non-envelope file must not be counted.
	if err := os.WriteFile(filepath.Join(st.Dir(), "README"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	n, err := st.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if n != 3 {
		t.Errorf("Pending: got %d, want 3", n)
	}
}

func TestFilenames_SortableAndStable(t *testing.T) {
	st := openStore(t)

	id, err := st.Put([]byte("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(st.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasSuffix(name, "-"+id+".json") {
		t.Errorf("filename %q does not embed bundle id %q", name, id)
	}
	if len(strings.SplitN(name, "-", 2)[0]) != 20 {
		t.Errorf("filename %q timestamp prefix is not zero-padded to 20 digits", name)
	}
}
