package differ

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ajnelson-nist/dfxml/internal/domain"
	"github.com/ajnelson-nist/dfxml/internal/testutil"
)

const vol = "63/ntfs"

func TestDiff_RequiresTwoSnapshots(t *testing.T) {
	d := New(Options{})

	_, err := d.Diff(nil)
	if !errors.Is(err, domain.ErrInsufficientSnapshots) {
		t.Errorf("Expected ErrInsufficientSnapshots, got %v", err)
	}

	_, err = d.Diff([]domain.Snapshot{testutil.NewSnapshot(0)})
	if !errors.Is(err, domain.ErrInsufficientSnapshots) {
		t.Errorf("Expected ErrInsufficientSnapshots, got %v", err)
	}
}

func TestDiff_UnknownVolumeReference(t *testing.T) {
	d := New(Options{})

	obj := testutil.NewObject("phantom-volume", 5, "file", 100, "aaa")
	bad := testutil.NewSnapshot(0, domain.VolumeSnapshot{
		VolumeID: vol,
		Objects:  []domain.FileSystemObject{obj},
	})

	_, err := d.Diff([]domain.Snapshot{bad, testutil.NewSnapshot(1)})
	if !errors.Is(err, domain.ErrUnknownVolume) {
		t.Errorf("Expected ErrUnknownVolume, got %v", err)
	}
}

func TestDiff_IdenticalSnapshots(t *testing.T) {
	objects := []domain.FileSystemObject{
		testutil.NewObject(vol, 1, "a", 10, "h1"),
		testutil.NewObject(vol, 2, "b/c", 20, "h2"),
		testutil.NewDirectory(vol, 3, "b"),
	}
	snapshots := testutil.SingleVolumeSnapshots(vol, objects, objects)

	d := New(Options{})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	if len(result.Records) != len(objects) {
		t.Fatalf("Expected %d records, got %d", len(objects), len(result.Records))
	}
	for _, rec := range result.Records {
		if rec.Classification != domain.ChangeUnchanged {
			t.Errorf("Expected unchanged, got %s for %v", rec.Classification, rec.New)
		}
		if len(rec.ChangedAttributes) != 0 {
			t.Errorf("Expected no changed attributes, got %v", rec.ChangedAttributes)
		}
	}
	if result.UnchangedTotal != len(objects) {
		t.Errorf("Expected unchanged total %d, got %d", len(objects), result.UnchangedTotal)
	}
}

func TestDiff_DropUnchanged(t *testing.T) {
	objects := []domain.FileSystemObject{
		testutil.NewObject(vol, 1, "a", 10, "h1"),
	}
	snapshots := testutil.SingleVolumeSnapshots(vol, objects, objects)

	d := New(Options{DropUnchanged: true})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("Expected no records with unchanged dropped, got %d", len(result.Records))
	}
	// Dropped records still count toward the total
	if result.UnchangedTotal != 1 {
		t.Errorf("Expected unchanged total 1, got %d", result.UnchangedTotal)
	}
}

func TestDiff_CreatedAndDeleted(t *testing.T) {
	oldObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 1, "gone", 10, "h1"),
	}
	newObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 2, "arrived", 20, "h2"),
	}
	snapshots := testutil.SingleVolumeSnapshots(vol, oldObjects, newObjects)

	d := New(Options{})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	counts := make(map[domain.Classification]int)
	for _, rec := range result.Records {
		counts[rec.Classification]++

		switch rec.Classification {
		case domain.ChangeCreated:
			if rec.Old != nil || rec.New == nil {
				t.Error("created record must carry only a new reference")
			}
		case domain.ChangeDeleted:
			if rec.Old == nil || rec.New != nil {
				t.Error("deleted record must carry only an old reference")
			}
		}
	}
	if counts[domain.ChangeCreated] != 1 || counts[domain.ChangeDeleted] != 1 {
		t.Errorf("Expected 1 created and 1 deleted, got %v", counts)
	}
}

func TestDiff_RenameAcrossPair(t *testing.T) {
	oldObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 5, "a", 100, "samehash"),
	}
	newObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 9, "b", 100, "samehash"),
	}
	snapshots := testutil.SingleVolumeSnapshots(vol, oldObjects, newObjects)

	d := New(Options{})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}
	rec := result.Records[0]
	if rec.Classification != domain.ChangeRenamed {
		t.Errorf("Expected renamed, got %s", rec.Classification)
	}
	if !rec.HasChangedAttribute(domain.AttrPath) {
		t.Errorf("Expected path in changed attributes, got %v", rec.ChangedAttributes)
	}
}

func TestDiff_ReusedAddress(t *testing.T) {
	oldObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 7, "a", 100, "h1"),
	}
	newObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 7, "b", 200, "h2"),
	}
	snapshots := testutil.SingleVolumeSnapshots(vol, oldObjects, newObjects)

	d := New(Options{})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].Classification != domain.ChangeReallocated {
		t.Errorf("Expected reallocated, got %s", result.Records[0].Classification)
	}
}

func TestDiff_MultiPairSequencing(t *testing.T) {
	s0Objects := []domain.FileSystemObject{
		testutil.NewObject(vol, 1, "a", 10, "h1"),
	}
	s1Objects := []domain.FileSystemObject{
		testutil.NewObject(vol, 1, "a", 15, "h1b"),
		testutil.NewObject(vol, 2, "b", 20, "h2"),
	}
	snapshots := []domain.Snapshot{
		testutil.NewSnapshot(0, testutil.NewVolume(vol, s0Objects...)),
		testutil.NewSnapshot(1, testutil.NewVolume(vol, s1Objects...)),
		testutil.NewSnapshot(2, testutil.NewVolume(vol, s1Objects...)),
	}

	d := New(Options{})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	if result.SnapshotCount != 3 {
		t.Errorf("Expected snapshot count 3, got %d", result.SnapshotCount)
	}

	for _, rec := range result.Records {
		switch rec.SnapshotPairIndex {
		case 0:
			// pair 0 has one modification and one creation
		case 1:
			if rec.Classification != domain.ChangeUnchanged {
				t.Errorf("Expected pair 1 all unchanged, got %s", rec.Classification)
			}
		default:
			t.Errorf("Unexpected pair index %d", rec.SnapshotPairIndex)
		}
	}

	pair1Count := 0
	for _, rec := range result.Records {
		if rec.SnapshotPairIndex == 1 {
			pair1Count++
		}
	}
	if pair1Count != len(s1Objects) {
		t.Errorf("Expected %d pair-1 records, got %d", len(s1Objects), pair1Count)
	}
}

func TestDiff_VolumeAppearsAndDisappears(t *testing.T) {
	volGone := "0/fat16"
	volNew := "2048/ext4"

	old := testutil.NewSnapshot(0,
		testutil.NewVolume(volGone, testutil.NewObject(volGone, 1, "old/file", 10, "h1")),
	)
	updated := testutil.NewSnapshot(1,
		testutil.NewVolume(volNew,
			testutil.NewObject(volNew, 1, "new/file", 10, "h1"),
			testutil.NewObject(volNew, 2, "new/other", 20, "h2"),
		),
	)

	d := New(Options{})
	result, err := d.Diff([]domain.Snapshot{old, updated})
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	counts := make(map[domain.Classification]int)
	for _, rec := range result.Records {
		counts[rec.Classification]++
	}
	// Volumes are never cross-matched, so identical content on the new
	// volume still counts as created
	want := map[domain.Classification]int{
		domain.ChangeDeleted: 1,
		domain.ChangeCreated: 2,
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("Expected %v, got %v", want, counts)
	}
}

func TestDiff_ParallelMatchesSequential(t *testing.T) {
	snapshots := make([]domain.Snapshot, 0, 5)
	for i := 0; i < 5; i++ {
		objects := []domain.FileSystemObject{
			testutil.NewObject(vol, 1, "stable", 10, "h1"),
			testutil.NewObject(vol, int64(10+i), "rotating", int64(100+i), "g1"),
		}
		snapshots = append(snapshots, testutil.NewSnapshot(i, testutil.NewVolume(vol, objects...)))
	}

	sequential, err := New(Options{}).Diff(snapshots)
	if err != nil {
		t.Fatalf("Sequential diff failed: %v", err)
	}
	parallel, err := New(Options{Parallelism: 4}).Diff(snapshots)
	if err != nil {
		t.Fatalf("Parallel diff failed: %v", err)
	}

	if !reflect.DeepEqual(sequential, parallel) {
		t.Error("Parallel and sequential runs produced different results")
	}
}

func TestDiff_AmbiguousSkipSurfacesAsCreatedAndDeleted(t *testing.T) {
	oldObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 5, "x/file", 100, "dup"),
	}
	newObjects := []domain.FileSystemObject{
		testutil.NewObject(vol, 8, "y/file", 100, "dup"),
		testutil.NewObject(vol, 9, "z/file", 100, "dup"),
	}
	snapshots := testutil.SingleVolumeSnapshots(vol, oldObjects, newObjects)

	d := New(Options{})
	result, err := d.Diff(snapshots)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}

	if result.AmbiguousSkips != 1 {
		t.Errorf("Expected 1 ambiguous skip, got %d", result.AmbiguousSkips)
	}
	counts := make(map[domain.Classification]int)
	for _, rec := range result.Records {
		counts[rec.Classification]++
	}
	if counts[domain.ChangeDeleted] != 1 || counts[domain.ChangeCreated] != 2 {
		t.Errorf("Expected ambiguous objects reported as deleted/created, got %v", counts)
	}
}
