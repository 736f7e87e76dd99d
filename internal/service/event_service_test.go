package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^250820-[A-Za-z0-9]{8}$`)

func TestCreateEvent(t *testing.T) {
	f := newFixture(t, nil)
	pkg := testutil.FreePackage(t, f.db)

	event, err := f.events.CreateEvent(context.Background(), 1, models.EventRequest{
		Name:      "Nişan",
		Location:  "Ankara",
		EventDate: "2025-09-01",
		EventTime: "19:30",
		PackageID: pkg.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusDraft, event.Status)
	assert.Regexp(t, slugPattern, event.Slug)
	require.NotNil(t, event.EventTime)
	assert.Equal(t, "19:30", *event.EventTime)
}

func TestCreateEventValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.events.CreateEvent(context.Background(), 1, models.EventRequest{
		Name:      "Nişan",
		Location:  "Ankara",
		EventDate: "2025-08-20",
		PackageID: 999,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "event_date")
	assert.Contains(t, verr.Fields, "package_id")

	_, err = f.events.CreateEvent(context.Background(), 1, models.EventRequest{EventDate: "yarın"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "event_date")
}

func TestUpdateEventKeepsSlug(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusDraft)

	updated, err := f.events.UpdateEvent(ctx, event.ID, 1, models.UpdateEventRequest{
		Name:      "Yeni isim",
		Location:  "İzmir",
		EventDate: "2030-01-02",
		PackageID: event.PackageID,
		Status:    string(models.EventStatusPublished),
	})
	require.NoError(t, err)
	assert.Equal(t, event.Slug, updated.Slug)
	assert.True(t, updated.IsPublished())

	_, err = f.events.UpdateEvent(ctx, event.ID, 2, models.UpdateEventRequest{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetPublishedEventShowsApprovedInOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
	second := testutil.CreatePhoto(t, f.db, event.ID, "event-photos/1/b.jpg", models.PhotoStatusApproved, 2)
	first := testutil.CreatePhoto(t, f.db, event.ID, "event-photos/1/a.jpg", models.PhotoStatusApproved, 1)
	testutil.CreatePhoto(t, f.db, event.ID, "event-photos/1/c.jpg", models.PhotoStatusPending, 0)

	view, err := f.events.GetPublishedEvent(ctx, event.Slug)
	require.NoError(t, err)
	require.Len(t, view.Photos, 2)
	assert.Equal(t, first.ID, view.Photos[0].ID)
	assert.Equal(t, second.ID, view.Photos[1].ID)
	assert.Equal(t, "http://localhost:8080/storage/event-photos/1/a.jpg", view.Photos[0].URL)

	draft := testutil.CreateEvent(t, f.db, 1, models.EventStatusDraft)
	_, err = f.events.GetPublishedEvent(ctx, draft.Slug)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteEventRemovesPhotosAndFiles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
	require.NoError(t, f.store.Put(ctx, "event-photos/1/a.jpg", strings.NewReader("a")))
	testutil.CreatePhoto(t, f.db, event.ID, "event-photos/1/a.jpg", models.PhotoStatusApproved, 1)

	require.NoError(t, f.events.DeleteEvent(ctx, event.ID, 1))

	count, err := f.photoRepo.CountByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	exists, err := f.store.Exists(ctx, "event-photos/1/a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.events.GetEvent(ctx, event.ID, 1)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventQRCode(t *testing.T) {
	f := newFixture(t, nil)
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)

	png, err := f.events.EventQRCode(context.Background(), event.ID, 1, 256)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}
