package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/ward-api/internal/catalog"
	"github.com/hospitalops/ward-api/internal/model"
	"github.com/hospitalops/ward-api/internal/store"
	"github.com/hospitalops/ward-api/internal/store/memory"
	apperrors "github.com/hospitalops/ward-api/pkg/errors"
	"github.com/hospitalops/ward-api/pkg/metrics"
)

func testCatalog(t *testing.T) *catalog.Service {
	t.Helper()
	cat, err := catalog.NewService(map[string]model.RoomTypeConfig{
		"General Ward": {DisplayName: "General Ward", Capacity: 3, PricePerStay: 500, NumberPrefix: "GW"},
		"ICU":          {DisplayName: "ICU", Capacity: 2, PricePerStay: 3000, NumberPrefix: "IC"},
	})
	require.NoError(t, err)
	return cat
}

func testService(t *testing.T, cat *catalog.Service, st store.Store) *Service {
	t.Helper()
	m := metrics.New("test", prometheus.NewRegistry())
	return NewService(cat, st, zerolog.Nop(), m)
}

func testDraft(name string) *model.AdmissionDraft {
	return &model.AdmissionDraft{
		Name:          name,
		Age:           42,
		Gender:        "female",
		Phone:         "5550001234",
		Address:       "12 Harbor Lane",
		AdmissionDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		DoctorName:    "Smith",
	}
}

func TestAdmitAndList(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	draft := testDraft("Alice")
	draft.AdmissionDate = time.Time{}
	patient, err := svc.Admit(ctx, draft, "ICU", "IC001")
	require.NoError(t, err)
	assert.NotEmpty(t, patient.ID)
	assert.Equal(t, "Alice", patient.Name)
	assert.Equal(t, "ICU", patient.RoomType)
	assert.Equal(t, "IC001", patient.RoomNumber)
	assert.Equal(t, model.PatientStatusAdmitted, patient.Status)
	assert.False(t, patient.AdmissionDate.IsZero())

	second, err := svc.Admit(ctx, testDraft("Bob"), "General Ward", "GW002")
	require.NoError(t, err)
	assert.NotEqual(t, patient.ID, second.ID)

	// Insertion order preserved.
	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "Bob", list[1].Name)
}

func TestAdmitIntoOccupiedRoom(t *testing.T) {
	cat := testCatalog(t)
	svc := testService(t, cat, memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	_, err := svc.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)

	_, err = svc.Admit(ctx, testDraft("Bob"), "ICU", "IC001")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrRoomUnavailable, apperrors.CodeOf(err))

	// No partial mutation: one patient, one occupied room.
	assert.Equal(t, 1, svc.Count())
	stats, err := cat.Stats("ICU")
	require.NoError(t, err)
	assert.Equal(t, model.RoomStats{Total: 2, Occupied: 1, Available: 1}, stats)
}

func TestAdmitUnknownRoomType(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))

	_, err := svc.Admit(context.Background(), testDraft("Alice"), "Burn Unit", "BU001")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnknownRoomType, apperrors.CodeOf(err))
	assert.Zero(t, svc.Count())
}

func TestAdmitInvalidDraft(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))

	draft := testDraft("Alice")
	draft.Name = ""
	_, err := svc.Admit(context.Background(), draft, "ICU", "IC001")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalid, apperrors.CodeOf(err))

	draft = testDraft("Bob")
	draft.Age = -1
	_, err = svc.Admit(context.Background(), draft, "ICU", "IC001")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalid, apperrors.CodeOf(err))

	assert.Zero(t, svc.Count())
}

func TestDischargeNotFound(t *testing.T) {
	cat := testCatalog(t)
	svc := testService(t, cat, memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	_, err := svc.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)

	_, err = svc.Discharge(ctx, "no-such-id")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrPatientNotFound, apperrors.CodeOf(err))

	// State untouched.
	assert.Equal(t, 1, svc.Count())
	stats, err := cat.Stats("ICU")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Occupied)
}

func TestDischargeFreesRoomForReadmission(t *testing.T) {
	cat := testCatalog(t)
	svc := testService(t, cat, memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	alice, err := svc.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)

	// Full ICU scenario: second admit to the same room fails, next room works.
	_, err = svc.Admit(ctx, testDraft("Bob"), "ICU", "IC001")
	require.Error(t, err)
	bob, err := svc.Admit(ctx, testDraft("Bob"), "ICU", "IC002")
	require.NoError(t, err)

	removed, err := svc.Discharge(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, removed.ID)

	stats, err := cat.Stats("ICU")
	require.NoError(t, err)
	assert.Equal(t, model.RoomStats{Total: 2, Occupied: 1, Available: 1}, stats)

	// The freed room is immediately admittable again.
	carol, err := svc.Admit(ctx, testDraft("Carol"), "ICU", "IC001")
	require.NoError(t, err)
	assert.Equal(t, "IC001", carol.RoomNumber)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, bob.ID, list[0].ID)
	assert.Equal(t, carol.ID, list[1].ID)
	for _, p := range list {
		assert.NotEqual(t, alice.ID, p.ID)
	}
}

func TestSearch(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	withDoctor := testDraft("Alice Jones")
	withDoctor.DoctorName = "Smith"
	_, err := svc.Admit(ctx, withDoctor, "ICU", "IC001")
	require.NoError(t, err)

	noDoctor := testDraft("Bob Brown")
	noDoctor.DoctorName = ""
	_, err = svc.Admit(ctx, noDoctor, "General Ward", "GW001")
	require.NoError(t, err)

	// Case-insensitive match on doctor name; a patient without a doctor
	// never matches.
	results := svc.Search("smith")
	require.Len(t, results, 1)
	assert.Equal(t, "Alice Jones", results[0].Name)

	// The "Dr." honorific in the query is ignored.
	results = svc.Search("Dr. Smith")
	require.Len(t, results, 1)
	assert.Equal(t, "Alice Jones", results[0].Name)

	// Name and room number matches.
	assert.Len(t, svc.Search("bob"), 1)
	assert.Len(t, svc.Search("gw001"), 1)
	assert.Len(t, svc.Search("nobody"), 0)

	// Empty query matches everyone.
	assert.Len(t, svc.Search(""), 2)
}

func TestPersistAndReload(t *testing.T) {
	st := memory.NewStore("hospitalPatients")
	ctx := context.Background()

	first := testService(t, testCatalog(t), st)
	alice, err := first.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)
	bob, err := first.Admit(ctx, testDraft("Bob"), "General Ward", "GW002")
	require.NoError(t, err)

	// A fresh catalog/registry pair over the same store reproduces both
	// the patient list and the occupancy state.
	cat := testCatalog(t)
	second := testService(t, cat, st)
	require.NoError(t, second.Load(ctx))

	list := second.List()
	require.Len(t, list, 2)
	assert.Equal(t, alice, list[0])
	assert.Equal(t, bob, list[1])

	stats, err := cat.Stats("ICU")
	require.NoError(t, err)
	assert.Equal(t, model.RoomStats{Total: 2, Occupied: 1, Available: 1}, stats)

	available, err := cat.AvailableRooms("General Ward")
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "GW001", available[0].Number)
	assert.Equal(t, "GW003", available[1].Number)
}

func TestLoadEmptyStore(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))
	require.NoError(t, svc.Load(context.Background()))
	assert.Zero(t, svc.Count())
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	st := memory.NewStore("hospitalPatients")
	ctx := context.Background()

	blob := `[
		{"id":"p1","name":"Alice","age":42,"gender":"female","room_type":"ICU","room_number":"IC001","admission_date":"2026-08-01T00:00:00Z","status":"Admitted"},
		{"id":"p2","name":"Broken","age":"not-a-number"},
		{"name":"No ID","age":30,"room_type":"ICU","room_number":"IC002"},
		"junk"
	]`
	require.NoError(t, st.Save(ctx, []byte(blob)))

	cat := testCatalog(t)
	svc := testService(t, cat, st)
	require.NoError(t, svc.Load(ctx))

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)

	stats, err := cat.Stats("ICU")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Occupied)
}

func TestLoadRejectsUnparseableBlob(t *testing.T) {
	st := memory.NewStore("hospitalPatients")
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, []byte("not json at all")))

	svc := testService(t, testCatalog(t), st)
	err := svc.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrMalformedRecord, apperrors.CodeOf(err))
}

func TestLoadSkipsVanishedRoom(t *testing.T) {
	st := memory.NewStore("hospitalPatients")
	ctx := context.Background()

	// Room IC009 is beyond the configured capacity, as after a shrink.
	blob := `[
		{"id":"p1","name":"Alice","age":42,"gender":"female","room_type":"ICU","room_number":"IC009","admission_date":"2026-08-01T00:00:00Z","status":"Admitted"},
		{"id":"p2","name":"Bob","age":50,"gender":"male","room_type":"ICU","room_number":"IC001","admission_date":"2026-08-02T00:00:00Z","status":"Admitted"}
	]`
	require.NoError(t, st.Save(ctx, []byte(blob)))

	cat := testCatalog(t)
	svc := testService(t, cat, st)
	require.NoError(t, svc.Load(ctx))

	// Both records survive the load; only the unresolvable room
	// assignment is skipped.
	assert.Equal(t, 2, svc.Count())
	stats, err := cat.Stats("ICU")
	require.NoError(t, err)
	assert.Equal(t, model.RoomStats{Total: 2, Occupied: 1, Available: 1}, stats)
}

type failingStore struct {
	fail bool
}

func (f *failingStore) Load(context.Context) ([]byte, error) {
	return nil, store.ErrNotFound
}

func (f *failingStore) Save(context.Context, []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return nil
}

func TestAdmitRollsBackOnPersistFailure(t *testing.T) {
	cat := testCatalog(t)
	st := &failingStore{fail: true}
	svc := testService(t, cat, st)

	_, err := svc.Admit(context.Background(), testDraft("Alice"), "ICU", "IC001")
	require.Error(t, err)

	// Neither side of the pair changed.
	assert.Zero(t, svc.Count())
	stats, statsErr := cat.Stats("ICU")
	require.NoError(t, statsErr)
	assert.Equal(t, model.RoomStats{Total: 2, Occupied: 0, Available: 2}, stats)
}

func TestDischargeRollsBackOnPersistFailure(t *testing.T) {
	cat := testCatalog(t)
	st := &failingStore{}
	svc := testService(t, cat, st)
	ctx := context.Background()

	alice, err := svc.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)

	st.fail = true
	_, err = svc.Discharge(ctx, alice.ID)
	require.Error(t, err)

	// Patient and occupancy restored.
	require.Equal(t, 1, svc.Count())
	assert.Equal(t, alice.ID, svc.List()[0].ID)
	stats, statsErr := cat.Stats("ICU")
	require.NoError(t, statsErr)
	assert.Equal(t, 1, stats.Occupied)

	// And the discharge goes through once the store recovers.
	st.fail = false
	_, err = svc.Discharge(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, svc.Count())
}

func TestExport(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	_, err := svc.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)

	snapshot := svc.Export()
	require.Len(t, snapshot.Patients, 1)
	assert.Equal(t, "Alice", snapshot.Patients[0].Name)
	assert.Equal(t, model.RoomStats{Total: 2, Occupied: 1, Available: 1}, snapshot.RoomStats["ICU"])
	assert.False(t, snapshot.ExportedAt.IsZero())

	// Export is read-only.
	assert.Equal(t, 1, svc.Count())
}

func TestListReturnsCopies(t *testing.T) {
	svc := testService(t, testCatalog(t), memory.NewStore("hospitalPatients"))
	ctx := context.Background()

	_, err := svc.Admit(ctx, testDraft("Alice"), "ICU", "IC001")
	require.NoError(t, err)

	svc.List()[0].Name = "Mallory"
	assert.Equal(t, "Alice", svc.List()[0].Name)
}
