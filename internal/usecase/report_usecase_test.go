package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicfix/internal/domain/entity"
	"civicfix/pkg/errors"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type reportFixture struct {
	uc        *ReportUseCase
	reports   *fakeReportRepo
	upvotes   *fakeUpvoteRepo
	blobs     *fakeBlobStore
	verifier  *fakeVerifier
	publisher *fakePublisher
}

func newReportFixture(results ...verifierResult) *reportFixture {
	reports := newFakeReportRepo()
	upvotes := newFakeUpvoteRepo(reports)
	blobs := newFakeBlobStore()
	verifier := &fakeVerifier{results: results}
	publisher := &fakePublisher{}

	verification, _ := newTestVerification(verifier)
	uc := NewReportUseCase(reports, upvotes, blobs, verification, publisher, nil)
	uc.newID = func() string { return "generated-id" }

	return &reportFixture{uc: uc, reports: reports, upvotes: upvotes, blobs: blobs, verifier: verifier, publisher: publisher}
}

func validInput() SubmitReportInput {
	return SubmitReportInput{
		SubmissionID: "sub-1",
		Image:        pngImage,
		Category:     "Pothole",
		Description:  "Deep pothole near the bus stop",
		AddressLine1: "12 Main Street",
		County:       "cork",
		Eircode:      "t12 ab34",
		Location:     &entity.GeoPoint{Latitude: 51.8985, Longitude: -8.4756, Accuracy: 12},
	}
}

var citizen = entity.Session{UserID: "u1", Email: "u1@example.com", Role: entity.RoleUser}

func TestSubmitCreatesPendingReport(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})

	report, err := f.uc.Submit(context.Background(), citizen, validInput())

	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "sub-1", report.SubmissionID)
	assert.Equal(t, entity.ReportStatusPending, report.Status)
	assert.Equal(t, "Co. Cork", report.County)
	assert.Equal(t, "T12 AB34", report.Eircode)
	assert.Empty(t, report.AssignedTo)
	assert.Zero(t, report.Upvotes)
	assert.Equal(t, "https://blobs.test/reports/u1/sub-1", report.ImageURL)
	assert.Equal(t, []string{"report.submitted"}, f.publisher.types())

	locked, _ := f.reports.HasPendingLock(context.Background(), "u1")
	assert.True(t, locked)
}

func TestSubmitGeneratesSubmissionID(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	input := validInput()
	input.SubmissionID = ""

	report, err := f.uc.Submit(context.Background(), citizen, input)

	require.NoError(t, err)
	assert.Equal(t, "generated-id", report.SubmissionID)
}

func TestSubmitPreconditionsNameTheField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitReportInput)
		field  string
	}{
		{"missing image", func(in *SubmitReportInput) { in.Image = nil }, "image"},
		{"not an image", func(in *SubmitReportInput) { in.Image = []byte("just some text") }, "image"},
		{"unknown category", func(in *SubmitReportInput) { in.Category = "Aliens" }, "category"},
		{"empty description", func(in *SubmitReportInput) { in.Description = "   " }, "description"},
		{"long description", func(in *SubmitReportInput) { in.Description = strings.Repeat("a", 151) }, "description"},
		{"missing address", func(in *SubmitReportInput) { in.AddressLine1 = "" }, "addressLine1"},
		{"invalid county", func(in *SubmitReportInput) { in.County = "Atlantis" }, "county"},
		{"missing eircode", func(in *SubmitReportInput) { in.Eircode = " " }, "eircode"},
		{"no location", func(in *SubmitReportInput) { in.Location = nil }, "location"},
		{"inaccurate location", func(in *SubmitReportInput) { in.Location.Accuracy = 150 }, "location"},
		{"path-like submission id", func(in *SubmitReportInput) { in.SubmissionID = "../u2/sub-1" }, "submissionId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReportFixture(verifierResult{ok: true})
			input := validInput()
			tt.mutate(&input)

			_, err := f.uc.Submit(context.Background(), citizen, input)

			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
			assert.Zero(t, f.verifier.calls)
			assert.Zero(t, f.blobs.uploads)
			assert.Empty(t, f.reports.reports)
		})
	}
}

func TestSubmitDescriptionAtLimitIsAccepted(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	input := validInput()
	input.Description = strings.Repeat("é", entity.MaxDescriptionLength)

	_, err := f.uc.Submit(context.Background(), citizen, input)

	assert.NoError(t, err)
}

func TestSubmitRejectsDuplicateLocation(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	f.reports.put(&entity.Report{
		UserID:    "u1",
		Status:    entity.ReportStatusPending,
		Location:  &entity.GeoPoint{Latitude: 51.8986, Longitude: -8.4756},
		CreatedAt: time.Now(),
	})

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	assert.True(t, errors.Is(err, "DUPLICATE_LOCATION"))
	assert.Zero(t, f.verifier.calls)
	assert.Zero(t, f.blobs.uploads)
}

func TestSubmitRejectsWhenPendingExistsElsewhere(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	f.reports.put(&entity.Report{
		UserID:    "u1",
		Status:    entity.ReportStatusPending,
		Location:  &entity.GeoPoint{Latitude: 53.3498, Longitude: -6.2603},
		CreatedAt: time.Now(),
	})

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	assert.True(t, errors.Is(err, "PENDING_REPORT_EXISTS"))
	assert.Zero(t, f.verifier.calls)
}

func TestSubmitOtherUsersPendingDoesNotBlock(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	f.reports.put(&entity.Report{
		UserID:   "someone-else",
		Status:   entity.ReportStatusPending,
		Location: &entity.GeoPoint{Latitude: 51.8985, Longitude: -8.4756},
	})

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	assert.NoError(t, err)
}

func TestSubmitNotRelevantImageWritesNothing(t *testing.T) {
	f := newReportFixture(verifierResult{ok: false})

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "IMAGE_NOT_RELEVANT", appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Equal(t, "generated-id", appErr.Details["nextSubmissionId"])
	assert.Equal(t, []string{"image", "category", "description"}, appErr.Details["resetFields"])
	assert.Zero(t, f.blobs.uploads)
	assert.Empty(t, f.reports.reports)
}

func TestSubmitVerifierFailureIsInfrastructure(t *testing.T) {
	f := newReportFixture(verifierResult{err: stderrors.New("boom")})

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	assert.True(t, errors.Is(err, "UPSTREAM_ERROR"))
	assert.False(t, errors.Is(err, "IMAGE_NOT_RELEVANT"))
	assert.Zero(t, f.blobs.uploads)
}

func TestSubmitUploadFailureCreatesNothing(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	f.blobs.uploadErr = stderrors.New("bucket gone")

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	assert.True(t, errors.Is(err, "UPSTREAM_ERROR"))
	assert.Empty(t, f.reports.reports)
}

func TestSubmitCreateFailureRemovesUploadedImage(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	f.reports.createErr = errors.Rejected("PENDING_REPORT_EXISTS", "raced")

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	assert.True(t, errors.Is(err, "PENDING_REPORT_EXISTS"))
	assert.Equal(t, []string{"https://blobs.test/reports/u1/sub-1"}, f.blobs.deleted)
	assert.Empty(t, f.blobs.objects)
}

func TestSubmitRejectsSubmissionIDOfAnotherReport(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	victimURL := "https://blobs.test/reports/u2/sub-1"
	victimImage := []byte("victim photo")
	f.blobs.objects[victimURL] = victimImage
	f.reports.put(&entity.Report{
		UserID:       "u2",
		SubmissionID: "sub-1",
		ImageURL:     victimURL,
		Status:       entity.ReportStatusApproved,
	})

	_, err := f.uc.Submit(context.Background(), citizen, validInput())

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "SUBMISSION_ID_IN_USE", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "generated-id", appErr.Details["nextSubmissionId"])
	assert.Zero(t, f.verifier.calls)
	assert.Zero(t, f.blobs.uploads)
	assert.Empty(t, f.blobs.deleted)
	assert.Equal(t, victimImage, f.blobs.objects[victimURL])
}

func TestSubmitImagesAreKeyedByOwner(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	input := validInput()
	input.SubmissionID = ""

	first, err := f.uc.Submit(context.Background(), citizen, input)
	require.NoError(t, err)
	second, err := f.uc.Submit(context.Background(), entity.Session{UserID: "u2", Role: entity.RoleUser}, input)
	require.NoError(t, err)

	assert.Equal(t, "https://blobs.test/reports/u1/generated-id", first.ImageURL)
	assert.Equal(t, "https://blobs.test/reports/u2/generated-id", second.ImageURL)
	assert.Len(t, f.blobs.objects, 2)
}

func TestCanSubmit(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})

	ok, err := f.uc.CanSubmit(context.Background(), citizen)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.uc.Submit(context.Background(), citizen, validInput())
	require.NoError(t, err)

	ok, err = f.uc.CanSubmit(context.Background(), citizen)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteOwnPendingReport(t *testing.T) {
	f := newReportFixture(verifierResult{ok: true})
	report, err := f.uc.Submit(context.Background(), citizen, validInput())
	require.NoError(t, err)

	err = f.uc.DeleteOwn(context.Background(), entity.Session{UserID: "u2"}, report.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	require.NoError(t, f.uc.DeleteOwn(context.Background(), citizen, report.ID))
	assert.Nil(t, f.reports.get(report.ID))
	assert.Contains(t, f.blobs.deleted, report.ImageURL)

	ok, _ := f.uc.CanSubmit(context.Background(), citizen)
	assert.True(t, ok)
}

func TestDeleteOwnRejectsNonPending(t *testing.T) {
	f := newReportFixture()
	r := f.reports.put(&entity.Report{UserID: "u1", Status: entity.ReportStatusApproved})

	err := f.uc.DeleteOwn(context.Background(), citizen, r.ID)

	assert.True(t, errors.Is(err, "INVALID_TRANSITION"))
}

func TestGetHidesOtherUsersPendingReports(t *testing.T) {
	f := newReportFixture()
	pending := f.reports.put(&entity.Report{UserID: "u2", Status: entity.ReportStatusPending})
	approved := f.reports.put(&entity.Report{UserID: "u2", Status: entity.ReportStatusApproved})

	_, err := f.uc.Get(context.Background(), citizen, pending.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	got, err := f.uc.Get(context.Background(), citizen, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, got.ID)

	got, err = f.uc.Get(context.Background(), entity.Session{UserID: "m", Role: entity.RoleModerator}, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)
}

func TestFeedListsOnlyPublicReports(t *testing.T) {
	f := newReportFixture()
	now := time.Now()
	f.reports.put(&entity.Report{UserID: "a", Status: entity.ReportStatusPending, County: "Co. Cork", CreatedAt: now})
	f.reports.put(&entity.Report{UserID: "b", Status: entity.ReportStatusApproved, County: "Co. Cork", CreatedAt: now.Add(-time.Hour)})
	f.reports.put(&entity.Report{UserID: "c", Status: entity.ReportStatusCompleted, County: "Co. Kerry", CreatedAt: now.Add(-2 * time.Hour)})
	f.reports.put(&entity.Report{UserID: "d", Status: entity.ReportStatusDeclined, County: "Co. Cork", CreatedAt: now})

	all, total, err := f.uc.Feed(context.Background(), FeedFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, entity.ReportStatusApproved, all[0].Status)

	cork, _, err := f.uc.Feed(context.Background(), FeedFilter{County: "cork"})
	require.NoError(t, err)
	require.Len(t, cork, 1)
	assert.Equal(t, "b", cork[0].UserID)

	_, _, err = f.uc.Feed(context.Background(), FeedFilter{Status: "pending"})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestToggleUpvoteAndRecount(t *testing.T) {
	f := newReportFixture()
	r := f.reports.put(&entity.Report{UserID: "owner", Status: entity.ReportStatusApproved})

	res, err := f.uc.ToggleUpvote(context.Background(), citizen, r.ID)
	require.NoError(t, err)
	assert.True(t, res.Upvoted)
	assert.Equal(t, 1, res.Upvotes)

	mine, err := f.uc.MyUpvotes(context.Background(), citizen)
	require.NoError(t, err)
	assert.True(t, mine.Has(r.ID))

	res, err = f.uc.ToggleUpvote(context.Background(), citizen, r.ID)
	require.NoError(t, err)
	assert.False(t, res.Upvoted)
	assert.Equal(t, 0, res.Upvotes)

	_, err = f.uc.ToggleUpvote(context.Background(), citizen, r.ID)
	require.NoError(t, err)
	require.NoError(t, f.reports.SetUpvotes(context.Background(), r.ID, 42))

	_, err = f.uc.RecountUpvotes(context.Background(), citizen, r.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	count, err := f.uc.RecountUpvotes(context.Background(), entity.Session{UserID: "admin", Role: entity.RoleAdmin}, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, f.reports.get(r.ID).Upvotes)
}

func TestToggleUpvoteRejectsPendingReport(t *testing.T) {
	f := newReportFixture()
	r := f.reports.put(&entity.Report{UserID: "owner", Status: entity.ReportStatusPending})

	_, err := f.uc.ToggleUpvote(context.Background(), citizen, r.ID)

	assert.True(t, errors.Is(err, "INVALID_TRANSITION"))
}
