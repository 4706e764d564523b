package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"folio/internal/domain"
	"folio/internal/service"
	"folio/mocks"
)

const (
	storageURL     = "https://auction-docs.s3.eu-west-1.amazonaws.com/A123.pdf"
	publicationURL = "https://issuu.com/house/docs/abc123"
)

type publicationFixture struct {
	svc         service.PublicationService
	storage     *mocks.MockStorageGateway
	publication *mocks.MockPublicationGateway
	alerter     *mocks.MockAlerter
	clock       *mocks.FakeClock
}

func newPublicationFixture(missingAsDeleted bool) *publicationFixture {
	f := &publicationFixture{
		storage:     new(mocks.MockStorageGateway),
		publication: new(mocks.MockPublicationGateway),
		alerter:     new(mocks.MockAlerter),
		clock:       mocks.NewFakeClock(testEpoch),
	}
	cfg := service.PublicationServiceConfig{
		PollInterval:     10 * time.Second,
		MaxPollAttempts:  60,
		PublishTimeout:   time.Minute,
		MinWaitSecs:      30,
		MaxWaitSecs:      480,
		MissingAsDeleted: missingAsDeleted,
	}
	f.svc = service.NewPublicationService(f.storage, f.publication, f.alerter, f.clock, cfg, discardLogger())
	return f
}

func validPublishInput() service.PublishInput {
	return service.PublishInput{
		CorrelationID:    "A123",
		DownloadFilename: "spring-catalogue",
		Title:            "Spring Sale",
		Description:      "Lots 1-200",
		Body:             []byte("%PDF-1.4 catalogue"),
		MimeType:         "application/pdf",
		PageCount:        12,
	}
}

func TestPublicationService_Publish_HappyPath(t *testing.T) {
	f := newPublicationFixture(true)
	input := validPublishInput()

	f.storage.On("Exists", mock.Anything, "A123.pdf").Return(false, nil)
	f.storage.On("Put", mock.Anything, "A123.pdf", input.Body, "spring-catalogue").Return(storageURL, nil)
	f.publication.On("CreateDraft", mock.Anything, storageURL, "Spring Sale", "Lots 1-200").Return("abc123", nil)
	f.publication.On("AwaitConversion", mock.Anything, "abc123", 10*time.Second, 60).Return(nil)
	f.publication.On("Publish", mock.Anything, "abc123").Return(publicationURL, nil)

	record, err := f.svc.Publish(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, record.Complete())
	assert.Equal(t, "A123", record.CorrelationID)
	assert.Equal(t, domain.StorageRef{Exists: true, Key: "A123.pdf", URL: storageURL}, record.Storage)
	assert.Equal(t, "abc123", record.Publication.Slug)
	assert.Equal(t, publicationURL, record.Publication.URL)
	assert.Equal(t, "Spring Sale", record.Publication.Title)
	require.NotNil(t, record.Publication.CreatedAt)
	assert.Equal(t, testEpoch, *record.Publication.CreatedAt)
	assert.Equal(t, domain.ConversionDone, record.ConversionState)
	assert.Equal(t, 12, record.PageCount)
	assert.Equal(t, 30, record.EstimatedWait)

	f.storage.AssertExpectations(t)
	f.publication.AssertExpectations(t)
	f.alerter.AssertNotCalled(t, "NotifyInconsistency", mock.Anything, mock.Anything)
}

func TestPublicationService_Publish_AlertFailureKeepsOriginalError(t *testing.T) {
	f := newPublicationFixture(true)
	f.storage.On("Exists", mock.Anything, "A123.pdf").Return(false, nil)
	f.storage.On("Put", mock.Anything, "A123.pdf", mock.Anything, mock.Anything).Return(storageURL, nil)
	f.publication.On("CreateDraft", mock.Anything, storageURL, mock.Anything, mock.Anything).
		Return("", &domain.Error{Kind: domain.KindDraftCreation})
	f.alerter.On("NotifyInconsistency", mock.Anything, mock.Anything).Return(errors.New("MessageRejected"))

	record, err := f.svc.Publish(context.Background(), validPublishInput())
	assert.ErrorIs(t, err, domain.ErrDraftCreation)
	require.NotNil(t, record)
	assert.True(t, record.Storage.Exists)
}

func TestPublicationService_Publish_DuplicateNeverTouchesPublication(t *testing.T) {
	f := newPublicationFixture(true)

	f.storage.On("Exists", mock.Anything, "A123.pdf").Return(true, nil)

	record, err := f.svc.Publish(context.Background(), validPublishInput())
	require.Error(t, err)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "A123")

	f.storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publication.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublicationService_Publish_StorageFailureStopsBeforePublication(t *testing.T) {
	f := newPublicationFixture(true)
	storageErr := &domain.Error{Kind: domain.KindStorageWrite, Backend: domain.BackendStorage, Status: 500, Body: "InternalError"}

	f.storage.On("Exists", mock.Anything, "A123.pdf").Return(false, nil)
	f.storage.On("Put", mock.Anything, "A123.pdf", mock.Anything, mock.Anything).Return("", storageErr)

	record, err := f.svc.Publish(context.Background(), validPublishInput())
	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrStorageWrite)
	f.publication.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublicationService_Publish_ExistenceCheckFailure(t *testing.T) {
	f := newPublicationFixture(true)

	f.storage.On("Exists", mock.Anything, "A123.pdf").
		Return(false, &domain.Error{Kind: domain.KindTransport, Backend: domain.BackendStorage})

	_, err := f.svc.Publish(context.Background(), validPublishInput())
	assert.ErrorIs(t, err, domain.ErrTransport)
	f.storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublicationService_Publish_HalfCommitReturnsRecord(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *publicationFixture)
		wantErr   *domain.Error
		wantDraft string
		wantState domain.ConversionState
	}{
		{
			name: "draft creation fails",
			setup: func(f *publicationFixture) {
				f.publication.On("CreateDraft", mock.Anything, storageURL, mock.Anything, mock.Anything).
					Return("", &domain.Error{Kind: domain.KindDraftCreation, Status: 422})
			},
			wantErr: domain.ErrDraftCreation,
		},
		{
			name: "conversion times out",
			setup: func(f *publicationFixture) {
				f.publication.On("CreateDraft", mock.Anything, storageURL, mock.Anything, mock.Anything).Return("abc123", nil)
				f.publication.On("AwaitConversion", mock.Anything, "abc123", mock.Anything, mock.Anything).
					Return(&domain.Error{Kind: domain.KindConversionTimeout})
			},
			wantErr:   domain.ErrConversionTimeout,
			wantDraft: "abc123",
			wantState: domain.ConversionPending,
		},
		{
			name: "conversion fails",
			setup: func(f *publicationFixture) {
				f.publication.On("CreateDraft", mock.Anything, storageURL, mock.Anything, mock.Anything).Return("abc123", nil)
				f.publication.On("AwaitConversion", mock.Anything, "abc123", mock.Anything, mock.Anything).
					Return(&domain.Error{Kind: domain.KindConversionFailed})
			},
			wantErr:   domain.ErrConversionFailed,
			wantDraft: "abc123",
			wantState: domain.ConversionFailed,
		},
		{
			name: "publish fails",
			setup: func(f *publicationFixture) {
				f.publication.On("CreateDraft", mock.Anything, storageURL, mock.Anything, mock.Anything).Return("abc123", nil)
				f.publication.On("AwaitConversion", mock.Anything, "abc123", mock.Anything, mock.Anything).Return(nil)
				f.publication.On("Publish", mock.Anything, "abc123").Return("", &domain.Error{Kind: domain.KindPublish})
			},
			wantErr:   domain.ErrPublish,
			wantDraft: "abc123",
			wantState: domain.ConversionDone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPublicationFixture(true)
			f.storage.On("Exists", mock.Anything, "A123.pdf").Return(false, nil)
			f.storage.On("Put", mock.Anything, "A123.pdf", mock.Anything, mock.Anything).Return(storageURL, nil)
			f.alerter.On("NotifyInconsistency", mock.Anything, mock.MatchedBy(func(inc domain.Inconsistency) bool {
				return inc.Operation == domain.OperationPublish &&
					inc.CorrelationID == "A123" &&
					inc.Key == "A123.pdf" &&
					inc.Slug == tt.wantDraft &&
					inc.StorageExists && !inc.PublicationExists &&
					inc.OccurredAt.Equal(testEpoch)
			})).Return(nil).Once()
			tt.setup(f)

			record, err := f.svc.Publish(context.Background(), validPublishInput())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			require.NotNil(t, record)
			assert.True(t, record.Storage.Exists)
			assert.Equal(t, storageURL, record.Storage.URL)
			assert.False(t, record.Publication.Exists)
			assert.False(t, record.Complete())
			assert.Equal(t, tt.wantDraft, record.DraftID)
			assert.Equal(t, tt.wantState, record.ConversionState)

			f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			f.alerter.AssertExpectations(t)
		})
	}
}

func TestPublicationService_Publish_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *service.PublishInput)
	}{
		{"missing correlation id", func(in *service.PublishInput) { in.CorrelationID = "" }},
		{"correlation id with slash", func(in *service.PublishInput) { in.CorrelationID = "a/b" }},
		{"missing filename", func(in *service.PublishInput) { in.DownloadFilename = " " }},
		{"missing title", func(in *service.PublishInput) { in.Title = "" }},
		{"missing description", func(in *service.PublishInput) { in.Description = "" }},
		{"wrong mime type", func(in *service.PublishInput) { in.MimeType = "image/png" }},
		{"empty body", func(in *service.PublishInput) { in.Body = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPublicationFixture(true)
			input := validPublishInput()
			tt.mutate(&input)

			record, err := f.svc.Publish(context.Background(), input)
			assert.Nil(t, record)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			f.storage.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
		})
	}
}

func TestPublicationService_Publish_AppliesTimeout(t *testing.T) {
	f := newPublicationFixture(true)

	f.storage.On("Exists", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "A123.pdf").Return(true, nil)

	_, err := f.svc.Publish(context.Background(), validPublishInput())
	assert.ErrorIs(t, err, domain.ErrConflict)
	f.storage.AssertExpectations(t)
}

func TestPublicationService_Validate(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Exists", mock.Anything, "A123.pdf").Return(true, nil)
		f.storage.On("URL", "A123.pdf").Return(storageURL)
		f.publication.On("FetchMetadata", mock.Anything, "abc123").
			Return(&domain.PublicationRef{Exists: true, Slug: "abc123", URL: publicationURL}, nil)

		result, err := f.svc.Validate(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, storageURL, result.Storage.URL)
		assert.Equal(t, publicationURL, result.Publication.URL)
	})

	t.Run("storage only", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Exists", mock.Anything, "A123.pdf").Return(true, nil)
		f.storage.On("URL", "A123.pdf").Return(storageURL)
		f.publication.On("FetchMetadata", mock.Anything, "abc123").
			Return(nil, &domain.Error{Kind: domain.KindNotFound})

		result, err := f.svc.Validate(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.True(t, result.Storage.Exists)
		assert.False(t, result.Publication.Exists)
		assert.Equal(t, "publication not found", result.Publication.Error)
	})

	t.Run("neither present", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Exists", mock.Anything, "A123.pdf").Return(false, nil)

		result, err := f.svc.Validate(context.Background(), domain.RecordRef{CorrelationID: "A123"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "file not found in storage", result.Storage.Error)
		assert.Equal(t, "no publication slug supplied", result.Publication.Error)
		f.publication.AssertNotCalled(t, "FetchMetadata", mock.Anything, mock.Anything)
	})

	t.Run("probe errors are reported not returned", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Exists", mock.Anything, "A123.pdf").
			Return(false, &domain.Error{Kind: domain.KindTransport, Backend: domain.BackendStorage, Message: "checking A123.pdf"})
		f.publication.On("FetchMetadata", mock.Anything, "abc123").
			Return(nil, &domain.Error{Kind: domain.KindTransport, Backend: domain.BackendPublication, Message: "fetching"})

		result, err := f.svc.Validate(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Storage.Error, "checking A123.pdf")
		assert.Contains(t, result.Publication.Error, "fetching")
	})

	t.Run("invalid correlation id", func(t *testing.T) {
		f := newPublicationFixture(true)
		_, err := f.svc.Validate(context.Background(), domain.RecordRef{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPublicationService_Retract(t *testing.T) {
	t.Run("both deleted", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Delete", mock.Anything, "A123.pdf").Return(nil)
		f.publication.On("Delete", mock.Anything, "abc123").Return(nil)

		result, err := f.svc.Retract(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.Partial())
		assert.Equal(t, "A123.pdf", result.Key)
		assert.Equal(t, domain.BackendOutcome{Attempted: true, Deleted: true}, result.Storage)
		assert.Equal(t, domain.BackendOutcome{Attempted: true, Deleted: true}, result.Publication)
	})

	t.Run("storage failure does not stop publication delete", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Delete", mock.Anything, "A123.pdf").
			Return(&domain.Error{Kind: domain.KindRetraction, Backend: domain.BackendStorage, Message: "deleting A123.pdf"})
		f.publication.On("Delete", mock.Anything, "abc123").Return(nil)
		f.alerter.On("NotifyInconsistency", mock.Anything, mock.MatchedBy(func(inc domain.Inconsistency) bool {
			return inc.Operation == domain.OperationRetract &&
				inc.StorageExists && !inc.PublicationExists &&
				inc.Slug == "abc123"
		})).Return(nil).Once()

		result, err := f.svc.Retract(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		f.alerter.AssertExpectations(t)
		assert.False(t, result.Success)
		assert.True(t, result.Partial())
		assert.False(t, result.Storage.Deleted)
		assert.Contains(t, result.Storage.Error, "deleting A123.pdf")
		assert.True(t, result.Publication.Deleted)
		f.publication.AssertExpectations(t)
	})

	t.Run("missing counts as deleted", func(t *testing.T) {
		f := newPublicationFixture(true)
		f.storage.On("Delete", mock.Anything, "A123.pdf").Return(nil)
		f.publication.On("Delete", mock.Anything, "abc123").Return(&domain.Error{Kind: domain.KindNotFound})

		result, err := f.svc.Retract(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("missing counts as failure when configured", func(t *testing.T) {
		f := newPublicationFixture(false)
		f.storage.On("Delete", mock.Anything, "A123.pdf").Return(nil)
		f.publication.On("Delete", mock.Anything, "abc123").
			Return(&domain.Error{Kind: domain.KindNotFound, Message: "publication abc123 not found"})
		f.alerter.On("NotifyInconsistency", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.Retract(context.Background(), domain.RecordRef{CorrelationID: "A123", Slug: "abc123"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.False(t, result.Publication.Deleted)
		assert.Contains(t, result.Publication.Error, "not found")
	})

	t.Run("requires slug", func(t *testing.T) {
		f := newPublicationFixture(true)
		_, err := f.svc.Retract(context.Background(), domain.RecordRef{CorrelationID: "A123"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestPublicationService_RetractStorageOnly(t *testing.T) {
	f := newPublicationFixture(true)
	f.storage.On("Delete", mock.Anything, "A123.pdf").Return(nil)

	result, err := f.svc.RetractStorageOnly(context.Background(), "A123")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Storage.Deleted)
	assert.False(t, result.Publication.Attempted)
	f.publication.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	_, err = f.svc.RetractStorageOnly(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestEstimateWaitSeconds(t *testing.T) {
	const mb = 1024 * 1024
	tests := []struct {
		name string
		size int64
		want int
	}{
		{"zero clamps to minimum", 0, 30},
		{"tiny file clamps to minimum", mb / 10, 30},
		{"one megabyte", mb, 60},
		{"two and a half megabytes", 5 * mb / 2, 150},
		{"eight megabytes hits maximum", 8 * mb, 480},
		{"large file clamps to maximum", 100 * mb, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.EstimateWaitSeconds(tt.size, 30, 480))
		})
	}
}

func TestPublicationService_EstimateWait(t *testing.T) {
	f := newPublicationFixture(true)
	assert.Equal(t, 120, f.svc.EstimateWait(2*1024*1024))
}
