package processors

import (
	"context"
	"time"

	"github.com/gamaops/storage-service/internal/domain"
)

// fakeJob mirrors the bus job contract in memory: Get/Del/Set queue field
// operations, Pull and Push apply them.
type fakeJob struct {
	id     string
	fields map[string][]byte

	getOps []string
	delOps []string
	setOps map[string][]byte

	consumed []string
	pushed   map[string][]byte
	pushes   int
	pushErr  error
	pullErr  error
}

func newFakeJob(id string, fields map[string][]byte) *fakeJob {
	if fields == nil {
		fields = map[string][]byte{}
	}

	return &fakeJob{
		id:     id,
		fields: fields,
		setOps: map[string][]byte{},
		pushed: map[string][]byte{},
	}
}

func (j *fakeJob) ID() string { return j.id }

func (j *fakeJob) Get(field string, markConsumed bool) domain.Job {
	j.getOps = append(j.getOps, field)
	if markConsumed {
		j.consumed = append(j.consumed, field)
	}

	return j
}

func (j *fakeJob) Del(field string) domain.Job {
	j.delOps = append(j.delOps, field)
	return j
}

func (j *fakeJob) Set(field string, value []byte) domain.Job {
	j.setOps[field] = value
	return j
}

func (j *fakeJob) Pull(ctx context.Context) (map[string][]byte, error) {
	if j.pullErr != nil {
		return nil, j.pullErr
	}

	out := map[string][]byte{}
	for _, field := range j.getOps {
		if value, ok := j.fields[field]; ok {
			out[field] = value
		}
	}
	for _, field := range j.delOps {
		delete(j.fields, field)
	}

	j.getOps = nil
	j.delOps = nil

	return out, nil
}

func (j *fakeJob) Push(ctx context.Context) error {
	if j.pushErr != nil {
		return j.pushErr
	}

	for field, value := range j.setOps {
		j.pushed[field] = value
	}
	j.setOps = map[string][]byte{}
	j.pushes++

	return nil
}

type fakeBucketRepository struct {
	buckets map[string]*domain.Bucket
	now     func() time.Time

	saveErr error
	findErr error

	saved          []*domain.Bucket
	lastOperation  domain.JobOperation
	lastJobID      string
	lastProjection []string
}

func newFakeBucketRepository() *fakeBucketRepository {
	return &fakeBucketRepository{
		buckets: map[string]*domain.Bucket{},
		now: func() time.Time {
			return time.Date(2026, 1, 12, 9, 30, 0, 0, time.UTC)
		},
	}
}

func (r *fakeBucketRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeBucketRepository) Save(ctx context.Context, bucket *domain.Bucket, op domain.JobOperation, jobID string) (*domain.Bucket, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}

	r.lastOperation = op
	r.lastJobID = jobID

	if op == domain.JobOperationCreate {
		bucket.CreatedAt = r.now()
		bucket.CreatedJobID = jobID
	} else {
		bucket.UpdatedAt = r.now()
		bucket.UpdatedJobID = jobID
	}

	r.saved = append(r.saved, bucket)
	r.buckets[bucket.ID] = bucket

	return bucket, nil
}

func (r *fakeBucketRepository) FindByID(ctx context.Context, id string, projection []string) (*domain.Bucket, error) {
	r.lastProjection = projection

	if r.findErr != nil {
		return nil, r.findErr
	}

	bucket, ok := r.buckets[id]
	if !ok {
		return nil, domain.ErrBucketNotFound
	}

	return bucket, nil
}

type fakeSigner struct {
	requests []domain.SignRequest
	token    string
	err      error
}

func (s *fakeSigner) SignJWT(ctx context.Context, request domain.SignRequest) (string, error) {
	s.requests = append(s.requests, request)
	if s.err != nil {
		return "", s.err
	}

	return s.token, nil
}
